package config

import "os"

func IsDebug() bool {
	return os.Getenv("COACH_DEBUG") == "1"
}

func IsJSONLog() bool {
	return os.Getenv("COACH_LOG_JSON") == "1"
}
