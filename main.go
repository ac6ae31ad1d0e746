package main

import (
	"embed"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	scenePath := flag.String("scene", "examples/mero.scene", "scene script to load at startup")
	flag.Parse()

	source, err := os.ReadFile(*scenePath)
	if err != nil {
		log.Fatalf("read scene: %v", err)
	}

	app := NewApp(filepath.Dir(*scenePath))
	if err := app.Init(string(source)); err != nil {
		log.Fatalf("init: %v", err)
	}

	err = wails.Run(&options.App{
		Title:  "parasurf",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatalf("wails: %v", err)
	}
}
