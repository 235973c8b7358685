package task

import (
	"context"
	"time"

	"github.com/bestruirui/argus/internal/alerter"
	"github.com/bestruirui/argus/internal/conf"
	"github.com/bestruirui/argus/internal/op"
	"github.com/bestruirui/argus/internal/source"
	"github.com/bestruirui/argus/internal/syncer"
	"github.com/bestruirui/argus/internal/utils/log"
)

const (
	TaskSyncLogs     = "sync_logs"
	TaskCheckAlerts  = "check_alerts"
	TaskRealtime     = "realtime_refresh"
	TaskSnapshots    = "channel_snapshots"
	TaskCleanOldData = "clean_old_data"
)

// Init registers the monitor's recurring jobs. Intervals come from config.
func Init(s *syncer.Syncer, a *alerter.Alerter) {
	m := conf.AppConfig.Monitor

	Register(TaskSyncLogs, time.Duration(m.SyncIntervalSeconds)*time.Second, true, func() {
		SyncLogsTask(s)
	})

	Register(TaskCheckAlerts, time.Duration(m.AlertIntervalSeconds)*time.Second, false, func() {
		CheckAlertsTask(a)
	})

	Register(TaskRealtime, 5*time.Second, true, RealtimeRefreshTask)

	Register(TaskSnapshots, time.Duration(m.SnapshotIntervalMinutes)*time.Minute, true, SnapshotChannelsTask)

	Register(TaskCleanOldData, time.Duration(m.CleanIntervalHours)*time.Hour, false, CleanOldDataTask)
}

func SyncLogsTask(s *syncer.Syncer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	n, err := s.Sync(ctx)
	if err != nil {
		log.Errorf("log sync failed: %v", err)
		return
	}
	if n > 0 {
		log.Debugf("log sync processed %d rows", n)
	}
}

func CheckAlertsTask(a *alerter.Alerter) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	a.CheckAlerts(ctx)
}

func RealtimeRefreshTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stats, err := source.RealtimeSnapshot(ctx)
	if err != nil {
		log.Warnf("realtime snapshot failed: %v", err)
		return
	}
	op.RealtimeSet(stats)
}

func SnapshotChannelsTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := syncer.SnapshotChannels(ctx); err != nil {
		log.Errorf("channel snapshot failed: %v", err)
	}
}

func CleanOldDataTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := op.CleanOldData(ctx, conf.AppConfig.Monitor.RetentionDays); err != nil {
		log.Errorf("clean old data failed: %v", err)
	}
}
