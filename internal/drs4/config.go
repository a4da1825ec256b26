// Package drs4 drives the DRS4 correlator over SSH: it triggers
// integrations and reads back the CSV result tables the firmware leaves on
// disk.
package drs4

import (
	"fmt"
	"time"
)

// Config describes how to reach the correlator host and where its command
// binaries and output files live. Credentials are passed through as given;
// resolution from the environment is the caller's concern.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyPath  string
	Timeout  time.Duration

	// Remote layout of the correlator software.
	CmdDir           string
	SetIntegTimeCmd  string
	GetCorrResultCmd string
	PowerPath        string
	PhasePath        string
}

func (c *Config) applyDefaults() error {
	if c.Host == "" {
		return fmt.Errorf("drs4: host is required")
	}
	if c.User == "" {
		c.User = "drs4"
	}
	if c.Port == 0 {
		c.Port = 22
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.CmdDir == "" {
		c.CmdDir = "/home/drs4/DRS4/cmd"
	}
	if c.SetIntegTimeCmd == "" {
		c.SetIntegTimeCmd = "./set_intg_time"
	}
	if c.GetCorrResultCmd == "" {
		c.GetCorrResultCmd = "./get_corr_rslt"
	}
	if c.PowerPath == "" {
		c.PowerPath = "/home/drs4/DRS4/cmd/out_corr_pow.csv"
	}
	if c.PhasePath == "" {
		c.PhasePath = "/home/drs4/DRS4/cmd/out_corr_phs.csv"
	}
	return nil
}
