package cmd

import (
	"github.com/bestruirui/argus/internal/alerter"
	"github.com/bestruirui/argus/internal/conf"
	"github.com/bestruirui/argus/internal/db"
	"github.com/bestruirui/argus/internal/notifier"
	"github.com/bestruirui/argus/internal/server"
	"github.com/bestruirui/argus/internal/source"
	"github.com/bestruirui/argus/internal/syncer"
	"github.com/bestruirui/argus/internal/task"
	"github.com/bestruirui/argus/internal/utils/log"
	"github.com/bestruirui/argus/internal/utils/shutdown"
	"github.com/spf13/cobra"
)

var cfgFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start " + conf.APP_NAME,
	PreRun: func(cmd *cobra.Command, args []string) {
		conf.PrintBanner()
		conf.Load(cfgFile)
		log.SetLevel(conf.AppConfig.Log.Level)
	},
	Run: func(cmd *cobra.Command, args []string) {
		shutdown.Init(log.Logger)
		defer shutdown.Listen()
		if err := db.InitDB(conf.AppConfig.Database.Path, conf.IsDebug()); err != nil {
			log.Errorf("database init error: %v", err)
			return
		}
		shutdown.Register(db.Close)

		src := conf.AppConfig.Source
		if err := source.Init(src.Type, src.DSN, conf.IsDebug()); err != nil {
			log.Errorf("source database init error: %v", err)
			return
		}
		shutdown.Register(source.Close)

		breaker := source.NewBreaker(src.Type, conf.SourceWriteDSN())
		shutdown.Register(breaker.Close)

		notify := conf.AppConfig.Notify
		telegram := notifier.NewTelegram(notify.TelegramBotToken, notify.TelegramChatID, notify.ProxyURL)

		checker := alerter.New(breaker, telegram,
			conf.AppConfig.Alerting.DayOffsetHours,
			conf.AppConfig.Alerting.CooldownMinutes)
		logSyncer := syncer.New(conf.AppConfig.Monitor.BatchSize)

		if err := server.Start(); err != nil {
			log.Errorf("server start error: %v", err)
			return
		}
		shutdown.Register(server.Close)

		task.Init(logSyncer, checker)
		go task.RUN()
	},
}

func init() {
	startCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./data/config.json)")
	rootCmd.AddCommand(startCmd)
}
