package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"setrag/internal/network"
)

func TestPlanTrips(t *testing.T) {
	from := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)

	plan := planTrips(network.Routes, from, 2)

	require.Len(t, plan, 2*len(departureHours)*len(network.Routes))

	first := plan[0]
	assert.Equal(t, network.Routes[0], first.Route)
	// 22:30 UTC is still the 10th in Libreville, so departures start on the 11th
	assert.Equal(t, time.Date(2026, 3, 11, 7, 0, 0, 0, libreville).Unix(), first.Departure.Unix())

	last := plan[len(plan)-1]
	assert.Equal(t, time.Date(2026, 3, 12, 15, 0, 0, 0, libreville).Unix(), last.Departure.Unix())
}

func TestPlanTripsNoDays(t *testing.T) {
	assert.Empty(t, planTrips(network.Routes, time.Now(), 0))
}
