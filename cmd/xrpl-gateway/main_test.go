package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
)

func TestAddressCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"address", "snoPBrXtMeMyMHUVTgbuqAfg1SUTb"})
	require.NoError(t, cmd.Execute())

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", got["address"])
	assert.Empty(t, got["seed"])
}

func TestAddressCommandRequiresInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"address"})
	assert.Error(t, cmd.Execute())
}

func TestAddressFromPassphraseShowsSeed(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"address", "--passphrase", "masterpassphrase"})
	require.NoError(t, cmd.Execute())

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "snoPBrXtMeMyMHUVTgbuqAfg1SUTb", got["seed"])
	assert.Equal(t, "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh", got["address"])
}

func TestPrintBreakdown(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printBreakdown(&out, fees.DefaultSchedules(), fees.ScheduleWithdrawal, "10", 0))

	var got struct {
		FeeBps   int64  `yaml:"fee_bps"`
		Fee      string `yaml:"fee"`
		Net      string `yaml:"net"`
		Payments []struct {
			Category string `yaml:"category"`
			XRP      string `yaml:"xrp"`
		} `yaml:"payments"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, int64(100), got.FeeBps)
	assert.Equal(t, "0.1", got.Fee)
	assert.Equal(t, "9.9", got.Net)
	require.Len(t, got.Payments, 4)
	assert.Equal(t, fees.CategoryLiquidityPool, got.Payments[0].Category)
	assert.Equal(t, "0.04", got.Payments[0].XRP)

	assert.ErrorIs(t, printBreakdown(&out, fees.DefaultSchedules(), "bogus", "10", 0), fees.ErrUnknownSchedule)
}
