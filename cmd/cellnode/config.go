// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/cellcore/emergency"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
)

// Flag/config keys, mirroring the teacher's cmd/simulator config
// convention of a flat viper key per flag (config.VersionKey,
// config.LogLevelKey, ...).
const (
	keyCellID         = "cell-id"
	keyLogLevel       = "log-level"
	keyLogFile        = "log-file"
	keyListenAddr     = "listen-addr"
	keyTickInterval   = "tick-interval"
	keyLimitMin       = "limit-min"
	keyLimitMax       = "limit-max"
	keyLimitDefault   = "limit-default"
	keyFloorThreshold = "floor-threshold"
	keyCommitmentMode = "commitment-mode"
	keyGovernanceEta  = "governance-eta"

	keyStressedFloorMass = "emergency-stressed-floor-mass"
	keyPanicFloorMass    = "emergency-panic-floor-mass"
	keyStressedVariance  = "emergency-stressed-variance"
	keyPanicVariance     = "emergency-panic-variance"
	keyRecentDefaultRate = "emergency-recent-default-rate"
	keyHoldDown          = "emergency-hold-down"
)

// buildFlagSet declares every cellnode flag, following the teacher's
// pflag.FlagSet-per-binary pattern so viper can bind to it directly.
func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("cellnode", pflag.ContinueOnError)

	fs.String("config", "", "path to a config file (yaml/json/toml)")
	fs.String(keyCellID, "cell-1", "cell identifier")
	fs.String(keyLogLevel, "info", "log level: trace|debug|info|warn|error|crit")
	fs.String(keyLogFile, "", "log file path; rotated with lumberjack. empty logs to stderr")
	fs.String(keyListenAddr, ":9650", "address the /metrics endpoint listens on")
	fs.Duration(keyTickInterval, 30*time.Second, "interval between emergency re-evaluation and queue sync ticks")

	fs.Int64(keyLimitMin, 0, "minimum allowed member credit limit")
	fs.Int64(keyLimitMax, 100000, "maximum allowed member credit limit")
	fs.Int64(keyLimitDefault, 1000, "credit limit assigned to newly admitted members")
	fs.Float64(keyFloorThreshold, 0.1, "floor-mass ratio threshold (rho)")
	fs.String(keyCommitmentMode, "SOFT", "initial commitment mode: DISABLED|SOFT|ESCROWED")
	fs.Int64(keyGovernanceEta, 50, "maximum member-limit delta per governance adjustment")

	fs.Float64(keyStressedFloorMass, emergency.DefaultThresholds.StressedFloorMass, "floor mass that triggers STRESSED")
	fs.Float64(keyPanicFloorMass, emergency.DefaultThresholds.PanicFloorMass, "floor mass that triggers PANIC")
	fs.Float64(keyStressedVariance, emergency.DefaultThresholds.StressedVariance, "balance variance that triggers STRESSED")
	fs.Float64(keyPanicVariance, emergency.DefaultThresholds.PanicVariance, "balance variance that triggers PANIC")
	fs.Float64(keyRecentDefaultRate, emergency.DefaultThresholds.RecentDefaultRate, "recent default rate that triggers PANIC")
	fs.Duration(keyHoldDown, emergency.DefaultThresholds.HoldDown, "hold-down period before an automatic state transition commits")

	return fs
}

// buildViper layers flags over environment variables over an optional
// config file, the way the teacher's cmd/simulator config.BuildViper
// layers pflag over env over file.
func buildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("CELLNODE")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// nodeConfig is the fully resolved configuration for one cellnode
// process.
type nodeConfig struct {
	CellID       ids.CellID
	LogLevel     string
	LogFile      string
	ListenAddr   string
	TickInterval time.Duration

	Parameters    ledger.Parameters
	GovernanceEta int64
	Thresholds    emergency.Thresholds
}

func commitmentModeFromString(s string) ledger.CommitmentMode {
	switch s {
	case "DISABLED":
		return ledger.CommitmentDisabled
	case "ESCROWED":
		return ledger.CommitmentEscrowed
	default:
		return ledger.CommitmentSoft
	}
}

// buildConfig resolves a nodeConfig from a populated viper instance,
// mirroring the teacher's config.BuildConfig(v) step.
func buildConfig(v *viper.Viper) nodeConfig {
	return nodeConfig{
		CellID:       ids.CellID(v.GetString(keyCellID)),
		LogLevel:     v.GetString(keyLogLevel),
		LogFile:      v.GetString(keyLogFile),
		ListenAddr:   v.GetString(keyListenAddr),
		TickInterval: v.GetDuration(keyTickInterval),

		Parameters: ledger.Parameters{
			LimitMin:       v.GetInt64(keyLimitMin),
			LimitMax:       v.GetInt64(keyLimitMax),
			LimitDefault:   v.GetInt64(keyLimitDefault),
			FloorThreshold: v.GetFloat64(keyFloorThreshold),
			CommitmentMode: commitmentModeFromString(v.GetString(keyCommitmentMode)),
		},
		GovernanceEta: v.GetInt64(keyGovernanceEta),

		Thresholds: emergency.Thresholds{
			StressedFloorMass: v.GetFloat64(keyStressedFloorMass),
			PanicFloorMass:    v.GetFloat64(keyPanicFloorMass),
			StressedVariance:  v.GetFloat64(keyStressedVariance),
			PanicVariance:     v.GetFloat64(keyPanicVariance),
			RecentDefaultRate: v.GetFloat64(keyRecentDefaultRate),
			HoldDown:          v.GetDuration(keyHoldDown),
		},
	}
}
