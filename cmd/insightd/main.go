package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koding/multiconfig"
	"github.com/nergy-se/insight/pkg/api/v1/config"
	"github.com/nergy-se/insight/pkg/app"
	"github.com/nergy-se/insight/pkg/insight"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	conf := &config.CliConfig{}
	err := multiconfig.New().Load(conf)
	if err != nil {
		return err
	}
	lvl, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		return fmt.Errorf("error setting logrus loglevel: %w", err)
	}
	logrus.SetLevel(lvl)

	// a token given as flag or env is stored for the next start
	if conf.Token() != "" {
		if _, err := os.Stat(conf.TokenFile); os.IsNotExist(err) {
			err = conf.PersistToken()
			if err != nil {
				logrus.Warnf("error persisting token to %s: %s", conf.TokenFile, err)
			}
		}
	}

	energy, ok := insight.ResolveEnergy(conf.Entities())
	if !ok {
		return fmt.Errorf("configure -energyheating or -energytotal")
	}
	logrus.Infof("energy mode %s, heating %q hot water %q periods %s", energy.Mode, energy.HeatingID, energy.HotwaterID, conf.Periods)

	a := app.New(conf)
	err = a.Start(ctx)
	if err != nil {
		return err
	}

	a.Wait()
	return nil
}
