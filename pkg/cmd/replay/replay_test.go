package replay

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/replay"
)

func TestPrintResult(t *testing.T) {
	script := &replay.Script{Track: "oval"}
	res := &replay.Result{
		Frames:    120,
		LapFrames: []int{100},
		Final: model.RaceSnapshot{
			CurrentLap: 1, TotalLaps: 1, ElapsedMillis: 1700,
			Position: model.Vec3{X: 1.5, Z: -2},
		},
		Completion: &model.CompletionRecord{
			Type: model.CompletionMessageType, Completed: true, Score: 984, TimeSpentSeconds: 1,
		},
	}
	var buf bytes.Buffer
	assert.NilError(t, printResult(&buf, script, res))
	out := buf.String()
	assert.Check(t, is.Contains(out, "track:      oval"))
	assert.Check(t, is.Contains(out, "laps:       1/1 [100]"))
	assert.Check(t, is.Contains(out, `"score":984`))

	buf.Reset()
	res.Completion = nil
	assert.NilError(t, printResult(&buf, script, res))
	assert.Check(t, is.Contains(buf.String(), "completion: none"))
}
