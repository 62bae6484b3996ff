package locale

import "golang.org/x/text/language"

// Messages holds the operator-facing strings printed by the CLI. Pure
// presentation: nothing here ever feeds back into the monitoring loop.
type Messages struct {
	DaemonStart    string
	DaemonTarget   string
	DaemonInterval string

	PauseActivated string
	PauseRemoved   string
	DaemonStopped  string
	DaemonNotFound string

	StatusPhase  string
	StatusPaused string
	StatusActive string

	SetupScanning   string
	SetupNoNetworks string
	SetupSelected   string
	SetupSaved      string
}

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Russian,
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]Messages{
	language.English: {
		DaemonStart:    "portald: start",
		DaemonTarget:   "lighthouse",
		DaemonInterval: "poll interval",

		PauseActivated: "Pause activated for",
		PauseRemoved:   "Pause removed.",
		DaemonStopped:  "Daemon stopped.",
		DaemonNotFound: "No running daemon found.",

		StatusPhase:  "Phase",
		StatusPaused: "Paused until",
		StatusActive: "Monitoring active.",

		SetupScanning:   "Scanning networks...",
		SetupNoNetworks: "No networks found.",
		SetupSelected:   "Selected network",
		SetupSaved:      "Settings saved to",
	},
	language.Russian: {
		DaemonStart:    "portald: запуск",
		DaemonTarget:   "маяк",
		DaemonInterval: "интервал проверки",

		PauseActivated: "Пауза активирована на",
		PauseRemoved:   "Пауза снята.",
		DaemonStopped:  "Демон остановлен.",
		DaemonNotFound: "Запущенный демон не найден.",

		StatusPhase:  "Фаза",
		StatusPaused: "Пауза до",
		StatusActive: "Мониторинг активен.",

		SetupScanning:   "Сканирую сети...",
		SetupNoNetworks: "Сети не найдены.",
		SetupSelected:   "Выбрана сеть",
		SetupSaved:      "Настройки сохранены в",
	},
}

// For returns the message table best matching the given BCP 47 tag.
// Unknown or empty tags fall back to English.
func For(tag string) Messages {
	_, idx := language.MatchStrings(matcher, tag)
	return catalog[supported[idx]]
}
