// Package main is the entry point for the Kinko FAQ Service.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kinko-io/faq-service/internal/faq"
)

func main() {
	faq.NewApp().Run()
}
