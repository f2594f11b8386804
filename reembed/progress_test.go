package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/talentmatch/progress"
)

func TestProgressReporter_Basic(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 100, 10)

	assert.Nil(t, reporter.Tracker())
	reporter.Start()
	require.NotNil(t, reporter.Tracker(), "should be started")

	reporter.Increment(25)
	reporter.Increment(25)
	reporter.Increment(50)

	elapsed := reporter.Elapsed()
	assert.Greater(t, elapsed, time.Duration(0), "elapsed time should be positive")

	output := buf.String()
	assert.Contains(t, output, "100/100", "should show completion")
	assert.Contains(t, output, "100.0%", "should show 100%")
}

func TestProgressReporter_Update(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 1000, 100)

	reporter.Start()
	reporter.Update(250)

	time.Sleep(10 * time.Millisecond) // Allow time for potential output

	// Update again to trigger progress
	reporter.Update(500)

	output := buf.String()
	// Should have some progress output
	assert.True(t, len(output) > 0, "should have progress output")
}

func TestProgressReporter_Finish(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 100, 10)

	reporter.Start()
	reporter.Update(75)
	reporter.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.Contains(t, output, "100.0%", "finish should show 100%")
	assert.Contains(t, output, "\n", "finish should print newline")
}

func TestProgressReporter_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 0, 10)

	reporter.Start()
	reporter.Finish()

	output := buf.String()
	assert.Contains(t, output, "0/0", "should handle zero total")
}

func TestProgressReporter_IncrementBeyondTotal(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 100, 10)

	reporter.Start()
	reporter.Increment(150) // More than total

	output := buf.String()
	// Should cap at total
	assert.Contains(t, output, "100/100", "should not exceed total")
}

func TestProgressReporter_Rate(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 1000, 100)

	reporter.Start()
	time.Sleep(50 * time.Millisecond)
	reporter.Update(100)
	time.Sleep(50 * time.Millisecond)

	reporter.Finish()

	output := buf.String()
	assert.Contains(t, output, "records/s", "should show rate")
}

func TestProgressReporter_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 100, 10)

	// Should not panic when not started
	reporter.Increment(10)
	reporter.Finish()

	// No output expected since not started
	output := buf.String()
	assert.Equal(t, "", output, "should have no output when not started")
}

func TestProgressReporter_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 1000, 100) // Report every 100 records

	reporter.Start()

	// First update under interval - should not print
	buf.Reset()
	reporter.Update(50)
	assert.Equal(t, "", buf.String(), "should not print under interval")

	// Update to exactly interval - should print
	buf.Reset()
	reporter.Update(100)
	output := buf.String()
	assert.True(t, len(output) > 0, "should print at interval")

	// Update beyond interval - should print
	buf.Reset()
	reporter.Update(250)
	output = buf.String()
	assert.True(t, len(output) > 0, "should print beyond interval")
}

func TestProgressReporter_FormattedOutput(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 5000, 1000)

	reporter.Start()
	reporter.Update(2500)
	time.Sleep(10 * time.Millisecond)
	reporter.Update(5000)

	output := buf.String()

	// Check format contains expected elements
	lines := strings.Split(strings.TrimSpace(output), "\r")
	if len(lines) > 0 {
		lastLine := lines[len(lines)-1]
		assert.Contains(t, lastLine, "/", "should have progress fraction")
		assert.Contains(t, lastLine, "%", "should have percentage")
	}
}

func TestProgressReporter_Label(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "project", 4, 1)

	reporter.Start()
	reporter.Update(2)

	assert.Contains(t, buf.String(), "project: 2/4 (50.0%)")
}

func TestProgressReporter_TracksStage(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewProgressReporter(&buf, "candidate", 10, 5)

	reporter.Start()
	reporter.Update(4)

	info, ok := reporter.Tracker().Stage(progress.StageVectorGeneration)
	require.True(t, ok)
	assert.Equal(t, 4, info.Current)
	assert.Equal(t, 10, info.Total)
	assert.Equal(t, progress.StatusInProgress, info.Status)

	reporter.Finish()
	info, _ = reporter.Tracker().Stage(progress.StageVectorGeneration)
	assert.Equal(t, progress.StatusCompleted, info.Status)
	assert.Equal(t, 10, info.Current)
}
