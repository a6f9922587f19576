package engine

import (
	"fmt"
	"log/slog"

	"github.com/drummonds/goPDFView/database"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// InitializeSchedules starts all the cron jobs (currently just one)
func (serverHandler *ServerHandler) InitializeSchedules(db database.Repository) {
	serverConfig, err := database.FetchConfigFromDB(db)
	if err != nil {
		fmt.Println("Error reading db when initializing")
	}

	// Run the library rescan immediately at startup in a goroutine
	Logger.Info("Running library rescan at startup")
	go serverHandler.rescanJobFunc(serverConfig, db)

	if serverConfig.RescanInterval <= 0 {
		Logger.Info("Library rescan scheduler disabled", "interval_minutes", serverConfig.RescanInterval)
		return
	}

	c := cron.New()
	var rescanJob cron.Job
	rescanJob = cron.FuncJob(func() { serverHandler.rescanJobFunc(serverConfig, db) })
	rescanJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(rescanJob) //ensure we don't kick off another if old one is still running
	c.AddJob(fmt.Sprintf("@every %dm", serverConfig.RescanInterval), rescanJob)
	Logger.Info("Adding library rescan scheduler", "interval_minutes", serverConfig.RescanInterval)
	c.Start()
}
