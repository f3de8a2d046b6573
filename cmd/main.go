package main

import "github.com/adanyl0v/daily-todo/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadConfig()
	app.MustInitApplicationLogger()

	app.MustOpenStorage()
	defer app.CloseStorage()

	app.MustInitServices()
	stopWorkers := app.StartWorkers()
	defer stopWorkers()

	app.MustListenAndServeHTTP()
}
