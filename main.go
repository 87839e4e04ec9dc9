package main

import (
	"github.com/sirupsen/logrus"

	"github.com/muhammadolammi/resumeanalyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
