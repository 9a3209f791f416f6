// Structured logging for the scheduler package family.

package eventsched_internal

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LOGGER_CONFIG_USE_JSON_DEFAULT                = true
	LOGGER_CONFIG_LEVEL_DEFAULT                   = "info"
	LOGGER_CONFIG_DISABLE_SRC_FILE_DEFAULT        = false
	LOGGER_CONFIG_LOG_FILE_DEFAULT                = "" // i.e. stderr
	LOGGER_CONFIG_LOG_FILE_MAX_SIZE_MB_DEFAULT    = 10
	LOGGER_CONFIG_LOG_FILE_MAX_BACKUP_NUM_DEFAULT = 1

	LOGGER_DEFAULT_LEVEL    = logrus.InfoLevel
	LOGGER_TIMESTAMP_FORMAT = time.RFC3339
	// Extra field added for component sub loggers:
	LOGGER_COMPONENT_FIELD_NAME = "comp"
)

// Collectable logger interface for logrus.Logger (see testutils/log_collector.go):
type CollectableLogger struct {
	logrus.Logger
	// Cache the condition of being enabled for debug or not, cheap to check
	// from hot loop-body code before building a costlier debug message:
	IsEnabledForDebug bool
}

func (log *CollectableLogger) GetOutput() io.Writer {
	return log.Out
}

func (log *CollectableLogger) GetLevel() any {
	return log.Logger.GetLevel()
}

func (log *CollectableLogger) SetLevel(level any) {
	if level, ok := level.(logrus.Level); ok {
		log.Logger.SetLevel(level)
		log.IsEnabledForDebug = log.IsLevelEnabled(logrus.DebugLevel)
	}
}

type LoggerConfig struct {
	// Whether to structure the logged record in JSON:
	UseJson bool `yaml:"use_json"`
	// Log level name: info, warn, ...:
	Level string `yaml:"level"`
	// Whether to disable the reporting of the source file:line# info:
	DisableSrcFile bool `yaml:"disable_src_file"`
	// Whether to log to a file or, if empty, to stderr:
	LogFile string `yaml:"log_file"`
	// Log file max size, in MB, before rotation, use 0 to disable:
	LogFileMaxSizeMB int `yaml:"log_file_max_size_mb"`
	// How many older log files to keep upon rotation:
	LogFileMaxBackupNum int `yaml:"log_file_max_backup_num"`
}

func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		UseJson:             LOGGER_CONFIG_USE_JSON_DEFAULT,
		Level:               LOGGER_CONFIG_LEVEL_DEFAULT,
		DisableSrcFile:      LOGGER_CONFIG_DISABLE_SRC_FILE_DEFAULT,
		LogFile:             LOGGER_CONFIG_LOG_FILE_DEFAULT,
		LogFileMaxSizeMB:    LOGGER_CONFIG_LOG_FILE_MAX_SIZE_MB_DEFAULT,
		LogFileMaxBackupNum: LOGGER_CONFIG_LOG_FILE_MAX_BACKUP_NUM_DEFAULT,
	}
}

// When files are logged, the file name is converted to a relative path,
// generally based on the root dir of the module. This package is used within
// this module and it may also be imported from other modules. Each importer
// should declare its dir path prefix and the longest match will be used.

type ModuleDirPathCache struct {
	// List of prefixes to be removed from the file path when logging, sorted in
	// reverse order by length.
	prefixList []string
	// If no prefix match is found, the number of directories to keep from the
	// end of the path.
	keepNDirs int
}

func (p *ModuleDirPathCache) addPrefix(prefix string) error {
	i := len(p.prefixList) - 1
	for i >= 0 {
		if p.prefixList[i] == prefix {
			return nil // already there
		}
		if len(p.prefixList[i]) > len(prefix) {
			break
		}
		i--
	}
	i++
	if i >= len(p.prefixList) {
		p.prefixList = append(p.prefixList, prefix)
	} else {
		p.prefixList = append(p.prefixList[:i+1], p.prefixList[i:]...)
		p.prefixList[i] = prefix
	}
	return nil
}

func (p *ModuleDirPathCache) stripPrefix(filePath string) string {
	for _, prefix := range p.prefixList {
		if strings.HasPrefix(filePath, prefix) {
			return filePath[len(prefix):]
		}
	}
	pathComp := strings.Split(filePath, "/")
	keepNComps := p.keepNDirs + 1
	if keepNComps < 1 {
		keepNComps = 1
	}
	if keepNComps < len(pathComp) {
		filePath = path.Join(pathComp[len(pathComp)-keepNComps:]...)
	}
	return filePath
}

func (p *ModuleDirPathCache) SetKeepNDirs(n int) {
	p.keepNDirs = n
}

var moduleDirPathCache = &ModuleDirPathCache{
	prefixList: []string{},
	keepNDirs:  1, // typically the last directory is the package
}

// Add the prefix based on the caller's stack, going back `upNDirs` directories
// using the caller's file path. The skip parameter is the number of stack
// frames to skip, needed when called via an exported wrapper that adds an
// extra frame.
func AddCallerSrcPathPrefixToLogger(upNDirs int, skip int) error {
	skip += 1 // skip this function
	_, file, _, ok := runtime.Caller(skip)
	if !ok {
		return fmt.Errorf("cannot determine source root: runtime.Caller(%d) failed", skip)
	}
	prefix := path.Dir(file)
	for i := 0; i < upNDirs; i++ {
		prefix = path.Dir(prefix)
	}
	if prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	moduleDirPathCache.addPrefix(prefix)
	return nil
}

// Cache for caller PC -> (file:line#, function), to speed up formatting:
type LogFuncFilePair struct {
	function string
	file     string
}

type LogFuncFileCache struct {
	m             *sync.Mutex
	funcFileCache map[uintptr]*LogFuncFilePair
}

func (c *LogFuncFileCache) LogCallerPrettyfier(f *runtime.Frame) (function string, file string) {
	c.m.Lock()
	defer c.m.Unlock()
	funcFile := c.funcFileCache[f.PC]
	if funcFile == nil {
		funcFile = &LogFuncFilePair{
			"",
			fmt.Sprintf("%s:%d", moduleDirPathCache.stripPrefix(f.File), f.Line),
		}
		c.funcFileCache[f.PC] = funcFile
	}
	return funcFile.function, funcFile.file
}

var logFunctionFileCache = &LogFuncFileCache{
	m:             &sync.Mutex{},
	funcFileCache: make(map[uintptr]*LogFuncFilePair),
}

var LogFieldKeySortOrder = map[string]int{
	logrus.FieldKeyTime:         -5,
	logrus.FieldKeyLevel:        -4,
	LOGGER_COMPONENT_FIELD_NAME: -3,
	logrus.FieldKeyFile:         -2,
	logrus.FieldKeyFunc:         -1,
	logrus.FieldKeyMsg:          1,
}

type LogFieldKeySortable struct {
	keys []string
}

func (d *LogFieldKeySortable) Len() int { return len(d.keys) }

func (d *LogFieldKeySortable) Less(i, j int) bool {
	key_i, key_j := d.keys[i], d.keys[j]
	order_i, order_j := LogFieldKeySortOrder[key_i], LogFieldKeySortOrder[key_j]
	if order_i != 0 || order_j != 0 {
		return order_i < order_j
	}
	return strings.Compare(key_i, key_j) == -1
}

func (d *LogFieldKeySortable) Swap(i, j int) { d.keys[i], d.keys[j] = d.keys[j], d.keys[i] }

func LogSortFieldKeys(keys []string) {
	sort.Sort(&LogFieldKeySortable{keys})
}

var LogTextFormatter = &logrus.TextFormatter{
	DisableColors:    true,
	DisableQuote:     false,
	FullTimestamp:    true,
	TimestampFormat:  LOGGER_TIMESTAMP_FORMAT,
	CallerPrettyfier: logFunctionFileCache.LogCallerPrettyfier,
	DisableSorting:   false,
	SortingFunc:      LogSortFieldKeys,
}

var LogJsonFormatter = &logrus.JSONFormatter{
	TimestampFormat:  LOGGER_TIMESTAMP_FORMAT,
	CallerPrettyfier: logFunctionFileCache.LogCallerPrettyfier,
}

var RootLogger = &CollectableLogger{
	Logger: logrus.Logger{
		Out:          os.Stderr,
		Formatter:    LogTextFormatter,
		Level:        LOGGER_DEFAULT_LEVEL,
		ReportCaller: true,
	},
}

// Public access to the root logger, needed for testing:
func GetRootLogger() *CollectableLogger { return RootLogger }

func GetLogLevelNames() []string {
	levelNames := make([]string, len(logrus.AllLevels))
	for i, level := range logrus.AllLevels {
		levelNames[i] = level.String()
	}
	return levelNames
}

func init() {
	// The module root is 1 directory up from this file's directory.
	AddCallerSrcPathPrefixToLogger(1, 0)
}

// Set the logger based on config:
func SetLogger(logCfg *LoggerConfig) error {
	if logCfg == nil {
		logCfg = DefaultLoggerConfig()
	}

	if levelName := logCfg.Level; levelName != "" {
		level, err := logrus.ParseLevel(levelName)
		if err != nil {
			return err
		}
		RootLogger.SetLevel(level)
	}

	if logCfg.UseJson {
		RootLogger.SetFormatter(LogJsonFormatter)
	} else {
		RootLogger.SetFormatter(LogTextFormatter)
	}

	RootLogger.SetReportCaller(!logCfg.DisableSrcFile)

	switch logFile := logCfg.LogFile; logFile {
	case "stderr":
		RootLogger.SetOutput(os.Stderr)
	case "stdout":
		RootLogger.SetOutput(os.Stdout)
	case "":
	default:
		logDir := path.Dir(logCfg.LogFile)
		if _, err := os.Stat(logDir); err != nil {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				return err
			}
		}
		if logCfg.LogFileMaxSizeMB <= 0 {
			f, err := os.OpenFile(logCfg.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			RootLogger.SetOutput(f)
			return nil
		}
		_, err := os.Stat(logCfg.LogFile)
		forceRotate := err == nil
		lj := &lumberjack.Logger{
			Filename:   logCfg.LogFile,
			MaxSize:    logCfg.LogFileMaxSizeMB,
			MaxBackups: logCfg.LogFileMaxBackupNum,
		}
		if forceRotate {
			if err := lj.Rotate(); err != nil {
				return err
			}
		}
		RootLogger.SetOutput(lj)
	}

	return nil
}

func NewCompLogger(compName string) *logrus.Entry {
	return RootLogger.WithField(LOGGER_COMPONENT_FIELD_NAME, compName)
}
