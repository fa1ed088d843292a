// Command deploycheck runs browser-driven verification suites against a
// deployed application: the auth/configuration bootstrap sequence and the
// production environment hygiene checks. Exit status is 0 only when every
// executed case passed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/motart/ordernimbus-fresh/internal/storage"
	"github.com/motart/ordernimbus-fresh/internal/task"
	"github.com/motart/ordernimbus-fresh/internal/verify"
)

const (
	commandUseName          = "deploycheck"
	commandShortDescription = "Verify a deployed application's runtime configuration"
	commandLongDescription  = "Run browser-driven verification suites against a deployed web application"

	subcommandAuthConfigUse   = "authconfig"
	subcommandAuthConfigShort = "Run the authentication and configuration suite"
	subcommandEnvConfigUse    = "envconfig"
	subcommandEnvConfigShort  = "Run the environment configuration suite"
	subcommandAllUse          = "all"
	subcommandAllShort        = "Run every verification suite"
	subcommandWatchUse        = "watch"
	subcommandWatchShort      = "Re-run every verification suite on an interval until interrupted"

	flagNameAppURL          = "app-url"
	flagNameCDNURL          = "cdn-url"
	flagNameConfigURL       = "config-url"
	flagNameWaitWindow      = "wait-window"
	flagNameStrict          = "strict"
	flagNameResultsDatabase = "results-db"
	flagNameCheckInterval   = "check-interval"
	flagNameRetentionDays   = "retention-days"

	flagUsageAppURL          = "application deployment URL to verify"
	flagUsageCDNURL          = "CDN origin URL to verify"
	flagUsageConfigURL       = "configuration endpoint URL"
	flagUsageWaitWindow      = "bounded wait window for page conditions"
	flagUsageStrict          = "treat inconclusive cases as failures"
	flagUsageResultsDatabase = "SQLite path for run history (empty disables persistence)"
	flagUsageCheckInterval   = "interval between watch-mode verification cycles"
	flagUsageRetentionDays   = "days of run history to keep in watch mode (0 keeps everything)"

	environmentKeyAppURL          = "APP_URL"
	environmentKeyCDNURL          = "CDN_URL"
	environmentKeyConfigURL       = "CONFIG_URL"
	environmentKeyWaitWindow      = "WAIT_WINDOW"
	environmentKeyStrict          = "STRICT_INCONCLUSIVE"
	environmentKeyResultsDatabase = "RESULTS_DB"
	environmentKeyCheckInterval   = "CHECK_INTERVAL"
	environmentKeyRetentionDays   = "RETENTION_DAYS"

	defaultCheckInterval = 15 * time.Minute

	loggerCreationErrorMessage    = "logger"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
	unexpectedArgumentsMessage    = "unexpected command arguments"

	passMarkerFormat         = "PASS: %s: %s\n"
	warnMarkerFormat         = "WARN: %s: %s\n"
	failMarkerFormat         = "FAIL: %s: %s\n"
	inconclusiveMarkerFormat = "INCONCLUSIVE: %s: %s\n"
	summaryOKFormat          = "deploycheck OK: %s\n"
	summaryFailedFormat      = "deploycheck failed: %s\n"

	logEventWatchStarted      = "watch_started"
	logEventWatchStopped      = "watch_stopped"
	logEventWatchSuiteError   = "watch_suite_error"
	logEventWatchPersistError = "watch_persist_error"
	logEventWatchPruneError   = "watch_prune_error"
	logFieldCheckInterval     = "check_interval"
	logFieldSuiteName         = "suite"
)

var errVerificationFailed = errors.New("verification failed")

// CheckConfig captures the configuration needed for a verification run.
type CheckConfig struct {
	Targets         verify.Targets
	Strict          bool
	ResultsDatabase string
	CheckInterval   time.Duration
	RetentionDays   int
}

// SuiteRunner executes one suite against the targets.
type SuiteRunner func(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error)

// DatabaseOpener opens the results database.
type DatabaseOpener func(configuration storage.Config) (*gorm.DB, error)

// CheckApplication constructs and executes the deploycheck command.
type CheckApplication struct {
	configurationLoader *viper.Viper
	suiteRunner         SuiteRunner
	databaseOpener      DatabaseOpener
}

// NewCheckApplication creates a CheckApplication with default dependencies.
func NewCheckApplication() *CheckApplication {
	return &CheckApplication{
		configurationLoader: viper.New(),
		suiteRunner:         runSuiteWithBrowser,
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithSuiteRunner overrides the suite execution dependency.
func (application *CheckApplication) WithSuiteRunner(suiteRunner SuiteRunner) *CheckApplication {
	application.suiteRunner = suiteRunner
	return application
}

// WithDatabaseOpener overrides the results database dependency.
func (application *CheckApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *CheckApplication {
	application.databaseOpener = databaseOpener
	return application
}

func runSuiteWithBrowser(logger *zap.Logger, suite verify.Suite, targets verify.Targets) (verify.Summary, error) {
	return verify.NewRunner(logger).RunSuite(suite, targets)
}

// Command builds the Cobra command tree.
func (application *CheckApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:           commandUseName,
		Short:         commandShortDescription,
		Long:          commandLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	rootCommand.AddCommand(
		&cobra.Command{
			Use:   subcommandAuthConfigUse,
			Short: subcommandAuthConfigShort,
			RunE: func(command *cobra.Command, arguments []string) error {
				return application.runSuites(arguments, verify.AuthConfigSuite())
			},
		},
		&cobra.Command{
			Use:   subcommandEnvConfigUse,
			Short: subcommandEnvConfigShort,
			RunE: func(command *cobra.Command, arguments []string) error {
				return application.runSuites(arguments, verify.EnvConfigSuite())
			},
		},
		&cobra.Command{
			Use:   subcommandAllUse,
			Short: subcommandAllShort,
			RunE: func(command *cobra.Command, arguments []string) error {
				return application.runSuites(arguments, verify.AuthConfigSuite(), verify.EnvConfigSuite())
			},
		},
		&cobra.Command{
			Use:   subcommandWatchUse,
			Short: subcommandWatchShort,
			RunE: func(command *cobra.Command, arguments []string) error {
				return application.runWatch(command.Context(), arguments, verify.AuthConfigSuite(), verify.EnvConfigSuite())
			},
		},
	)

	return rootCommand, nil
}

func (application *CheckApplication) configureCommand(command *cobra.Command) error {
	defaults := verify.DefaultTargets()

	application.configurationLoader.SetDefault(environmentKeyAppURL, defaults.AppURL)
	application.configurationLoader.SetDefault(environmentKeyCDNURL, defaults.CDNOriginURL)
	application.configurationLoader.SetDefault(environmentKeyConfigURL, defaults.ConfigEndpointURL)
	application.configurationLoader.SetDefault(environmentKeyWaitWindow, defaults.WaitWindow)
	application.configurationLoader.SetDefault(environmentKeyStrict, false)
	application.configurationLoader.SetDefault(environmentKeyResultsDatabase, "")
	application.configurationLoader.SetDefault(environmentKeyCheckInterval, defaultCheckInterval)
	application.configurationLoader.SetDefault(environmentKeyRetentionDays, 0)
	application.configurationLoader.AutomaticEnv()

	persistentFlags := command.PersistentFlags()
	persistentFlags.String(flagNameAppURL, defaults.AppURL, flagUsageAppURL)
	persistentFlags.String(flagNameCDNURL, defaults.CDNOriginURL, flagUsageCDNURL)
	persistentFlags.String(flagNameConfigURL, defaults.ConfigEndpointURL, flagUsageConfigURL)
	persistentFlags.Duration(flagNameWaitWindow, defaults.WaitWindow, flagUsageWaitWindow)
	persistentFlags.Bool(flagNameStrict, false, flagUsageStrict)
	persistentFlags.String(flagNameResultsDatabase, "", flagUsageResultsDatabase)
	persistentFlags.Duration(flagNameCheckInterval, defaultCheckInterval, flagUsageCheckInterval)
	persistentFlags.Int(flagNameRetentionDays, 0, flagUsageRetentionDays)

	flagBindings := map[string]string{
		environmentKeyAppURL:          flagNameAppURL,
		environmentKeyCDNURL:          flagNameCDNURL,
		environmentKeyConfigURL:       flagNameConfigURL,
		environmentKeyWaitWindow:      flagNameWaitWindow,
		environmentKeyStrict:          flagNameStrict,
		environmentKeyResultsDatabase: flagNameResultsDatabase,
		environmentKeyCheckInterval:   flagNameCheckInterval,
		environmentKeyRetentionDays:   flagNameRetentionDays,
	}
	for environmentKey, flagName := range flagBindings {
		if bindErr := application.bindFlag(persistentFlags, environmentKey, flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(persistentFlags, environmentKey, flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *CheckApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *CheckApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *CheckApplication) loadCheckConfig() CheckConfig {
	return CheckConfig{
		Targets: verify.Targets{
			AppURL:            strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAppURL)),
			CDNOriginURL:      strings.TrimSpace(application.configurationLoader.GetString(environmentKeyCDNURL)),
			ConfigEndpointURL: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyConfigURL)),
			WaitWindow:        application.configurationLoader.GetDuration(environmentKeyWaitWindow),
		},
		Strict:          application.configurationLoader.GetBool(environmentKeyStrict),
		ResultsDatabase: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyResultsDatabase)),
		CheckInterval:   application.configurationLoader.GetDuration(environmentKeyCheckInterval),
		RetentionDays:   application.configurationLoader.GetInt(environmentKeyRetentionDays),
	}
}

func (application *CheckApplication) runSuites(arguments []string, suites ...verify.Suite) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	checkConfig := application.loadCheckConfig()

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, openErr := application.openResultsDatabase(checkConfig)
	if openErr != nil {
		return openErr
	}
	defer closeDatabase(database)

	allPassed := true
	for _, suite := range suites {
		summary, runErr := application.suiteRunner(logger, suite, checkConfig.Targets)
		if runErr != nil {
			return runErr
		}

		printSummary(summary)

		if persistErr := application.persistSummary(database, summary); persistErr != nil {
			return persistErr
		}

		if !summary.Passed() {
			allPassed = false
		}
		if checkConfig.Strict && !summary.Conclusive() {
			allPassed = false
		}
	}

	if !allPassed {
		return errVerificationFailed
	}
	return nil
}

// runWatch re-runs the suites on the configured interval until the context is
// cancelled. One failing cycle never stops the watch; failures surface through
// the summaries and the persisted run history.
func (application *CheckApplication) runWatch(watchContext context.Context, arguments []string, suites ...verify.Suite) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	checkConfig := application.loadCheckConfig()

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// One results connection for the whole watch; cycles reuse it instead of
	// reopening the database every interval.
	database, openErr := application.openResultsDatabase(checkConfig)
	if openErr != nil {
		return openErr
	}
	defer closeDatabase(database)

	cycle := func(cycleContext context.Context) {
		for _, suite := range suites {
			summary, runErr := application.suiteRunner(logger, suite, checkConfig.Targets)
			if runErr != nil {
				logger.Error(logEventWatchSuiteError,
					zap.String(logFieldSuiteName, suite.Name),
					zap.Error(runErr),
				)
				continue
			}
			printSummary(summary)
			if persistErr := application.persistSummary(database, summary); persistErr != nil {
				logger.Error(logEventWatchPersistError,
					zap.String(logFieldSuiteName, suite.Name),
					zap.Error(persistErr),
				)
			}
		}
		if pruneErr := application.pruneHistory(cycleContext, logger, database, checkConfig.RetentionDays); pruneErr != nil {
			logger.Error(logEventWatchPruneError, zap.Error(pruneErr))
		}
	}

	scheduler := task.NewScheduler(checkConfig.CheckInterval, cycle)
	scheduler.Start(watchContext)
	scheduler.Trigger()

	logger.Info(logEventWatchStarted, zap.Duration(logFieldCheckInterval, checkConfig.CheckInterval))
	<-watchContext.Done()
	scheduler.Stop()
	logger.Info(logEventWatchStopped)
	return nil
}

// openResultsDatabase opens and migrates the results database, once per
// command invocation. A nil database means persistence is disabled.
func (application *CheckApplication) openResultsDatabase(checkConfig CheckConfig) (*gorm.DB, error) {
	if checkConfig.ResultsDatabase == "" {
		return nil, nil
	}

	database, openErr := application.databaseOpener(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: checkConfig.ResultsDatabase,
	})
	if openErr != nil {
		return nil, openErr
	}
	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		closeDatabase(database)
		return nil, migrateErr
	}
	return database, nil
}

func closeDatabase(database *gorm.DB) {
	if database == nil {
		return
	}
	sqlDatabase, poolErr := database.DB()
	if poolErr != nil {
		return
	}
	_ = sqlDatabase.Close()
}

func (application *CheckApplication) pruneHistory(pruneContext context.Context, logger *zap.Logger, database *gorm.DB, retentionDays int) error {
	if database == nil || retentionDays <= 0 {
		return nil
	}

	pruneJob := task.NewHistoryPruneJob(database, logger, task.HistoryPruneConfig{
		RetentionDays: retentionDays,
	})
	return pruneJob.Run(pruneContext)
}

func (application *CheckApplication) persistSummary(database *gorm.DB, summary verify.Summary) error {
	if database == nil {
		return nil
	}

	run, results, recordErr := summary.RunRecord(storage.NewID)
	if recordErr != nil {
		return recordErr
	}
	return storage.PersistRun(database, run, results)
}

func printSummary(summary verify.Summary) {
	for _, outcome := range summary.Outcomes {
		for _, passMessage := range outcome.Passes {
			fmt.Fprintf(os.Stdout, passMarkerFormat, outcome.CaseName, passMessage)
		}
		for _, warningMessage := range outcome.Warnings {
			fmt.Fprintf(os.Stdout, warnMarkerFormat, outcome.CaseName, warningMessage)
		}
		for _, inconclusiveMessage := range outcome.Inconclusives {
			fmt.Fprintf(os.Stdout, inconclusiveMarkerFormat, outcome.CaseName, inconclusiveMessage)
		}
		for _, failureMessage := range outcome.Failures {
			fmt.Fprintf(os.Stderr, failMarkerFormat, outcome.CaseName, failureMessage)
		}
		if outcome.RunError != nil {
			fmt.Fprintf(os.Stderr, failMarkerFormat, outcome.CaseName, outcome.RunError.Error())
		}
	}

	if summary.Passed() {
		fmt.Fprintf(os.Stdout, summaryOKFormat, summary.SuiteName)
		return
	}
	fmt.Fprintf(os.Stderr, summaryFailedFormat, summary.SuiteName)
}

func main() {
	application := NewCheckApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	commandContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if executeErr := rootCommand.ExecuteContext(commandContext); executeErr != nil {
		if !errors.Is(executeErr, errVerificationFailed) {
			fmt.Fprintf(os.Stderr, "%v\n", executeErr)
		}
		os.Exit(1)
	}
}
