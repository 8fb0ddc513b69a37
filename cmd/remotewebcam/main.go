package main

import (
	"github.com/AbQaadir/RemoteWebCam/internal/app"
)

func main() {
	app.NewApp().Start()
}
