package main

import (
	"context"
	"errors"
	"net/http"
)

func main() {
	app := mustBootstrapTrackerAPI()
	defer app.Close()

	err := app.Run()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
