package main

import (
	app "github.com/corray333/storefront/internal/app/notifier"
	"github.com/corray333/storefront/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
