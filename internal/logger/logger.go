package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	isDebug = false

	CritColor    = color.RGB(255, 0, 0).SprintFunc()
	DebugColor   = color.RGB(255, 165, 0).SprintFunc()
	WarningColor = color.RGB(255, 255, 0).SprintFunc()
	EventColor   = color.RGB(0, 255, 0).SprintFunc()

	// подменяется в тестах
	exit = os.Exit
)

type (
	Config struct {
		// Сохранять ли логи
		Enabled bool `yaml:"enabled"`
		// В какую папку сохранять, по умолчанию "./logs"
		Directory string `yaml:"directory"`
		// Имя файла без расширения
		Filename string `yaml:"filename"`
		// Размер файла в мегабайтах до ротации
		MaxSizeMB int `yaml:"max_size_mb"`
		// Сколько старых файлов хранить
		MaxBackups int `yaml:"max_backups"`

		NoColor bool `yaml:"no_color"`
	}
)

// InitLogger настраивает стандартный log. Возвращаемый io.Closer закрывает файл логов,
// если запись в файл включена, иначе nil.
func InitLogger(debug bool, cnf Config) io.Closer {
	isDebug = debug
	color.NoColor = cnf.NoColor

	log.SetPrefix("[APP] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)
	log.SetOutput(os.Stdout)

	if !cnf.Enabled {
		return nil
	}

	if cnf.Directory == "" {
		cnf.Directory = "./logs"
	}
	if cnf.Filename == "" {
		cnf.Filename = "app"
	}
	if cnf.MaxSizeMB <= 0 {
		cnf.MaxSizeMB = 5
	}
	if cnf.MaxBackups <= 0 {
		cnf.MaxBackups = 10
	}

	if err := os.MkdirAll(cnf.Directory, 0755); err != nil {
		Warning("Error while create log directory, logs are not saved:", err)
		return nil
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(cnf.Directory, cnf.Filename+".log"),
		MaxSize:    cnf.MaxSizeMB,
		MaxBackups: cnf.MaxBackups,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	return logFile
}

func IsDebug() bool {
	return isDebug
}

func Info(v ...interface{}) {
	log.Print("[INFO] ", fmt.Sprintln(v...))
}

func Event(v ...interface{}) {
	log.Print(EventColor("[Event] ", fmt.Sprintln(v...)))
}

func Warning(v ...interface{}) {
	log.Print(WarningColor("[WARNING] ", fmt.Sprintln(v...)))
}

func Debug(v ...interface{}) {
	if isDebug {
		message := new(bytes.Buffer)

		for _, str := range v {
			switch s := str.(type) {
			case string:
				_, _ = fmt.Fprintf(message, "%s ", s)
			case []byte:
				_, _ = fmt.Fprintf(message, "%s ", s)
			case error:
				_, _ = fmt.Fprintf(message, "%s ", s.Error())
			default:
				b, _ := json.MarshalIndent(s, "", " ")
				_, _ = fmt.Fprintf(message, "%s ", b)
			}
		}

		log.Print(DebugColor("[DEBUG] ", message))
	}
}

func Crit(v ...interface{}) {
	log.Print(CritColor("Critical error: ", fmt.Sprintln(v...)))
	time.Sleep(time.Second)
	exit(1)
}
