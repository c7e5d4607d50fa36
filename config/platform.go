package config

import "runtime"

func defaultInputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "pulse"
	}
}

func defaultInputDevice() string {
	if runtime.GOOS == "darwin" {
		return ":0"
	}
	return "default"
}

func defaultSpeechCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak-ng"
}
