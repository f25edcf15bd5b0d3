package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lapracer/pkg/model"
)

func TestState_Aliasing(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want model.Controls
	}{
		{name: "nothing pressed", keys: nil, want: model.Controls{}},
		{name: "arrow up", keys: []string{"ArrowUp"}, want: model.Controls{Accelerate: true}},
		{name: "wasd w", keys: []string{"KeyW"}, want: model.Controls{Accelerate: true}},
		{
			name: "mixed aliases",
			keys: []string{"KeyA", "ArrowRight", "KeyS"},
			want: model.Controls{TurnLeft: true, TurnRight: true, Brake: true},
		},
		{name: "unbound key", keys: []string{"Space"}, want: model.Controls{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, k := range tt.keys {
				s.KeyDown(k)
			}
			assert.Equal(t, tt.want, s.Controls())
		})
	}
}

func TestState_ReleaseOneAliasKeepsCommand(t *testing.T) {
	s := New()
	s.KeyDown("ArrowUp")
	s.KeyDown("KeyW")
	s.KeyUp("ArrowUp")
	assert.True(t, s.IsPressed(model.Accelerate))
	s.KeyUp("KeyW")
	assert.False(t, s.IsPressed(model.Accelerate))
}

func TestState_UnboundKeysReported(t *testing.T) {
	s := New()
	assert.False(t, s.KeyDown("Escape"))
	assert.True(t, s.KeyDown("KeyD"))
}

func TestState_Reset(t *testing.T) {
	s := New()
	s.KeyDown("ArrowLeft")
	s.KeyDown("ArrowUp")
	s.Reset()
	assert.Equal(t, model.Controls{}, s.Controls())
}

func TestState_CustomBindings(t *testing.T) {
	s := New(WithBindings(map[string]model.Command{"KeyJ": model.Brake}))
	s.KeyDown("KeyJ")
	s.KeyDown("ArrowDown")
	assert.Equal(t, model.Controls{Brake: true}, s.Controls())
}

func TestState_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.KeyDown("ArrowUp")
				_ = s.Controls()
				s.KeyUp("ArrowUp")
			}
		}()
	}
	wg.Wait()
	assert.False(t, s.IsPressed(model.Accelerate))
}

func TestState_KeyFor(t *testing.T) {
	s := New()
	key, ok := s.KeyFor(model.Accelerate)
	require.True(t, ok)
	assert.Equal(t, "ArrowUp", key)

	s = New(WithBindings(map[string]model.Command{"Space": model.Brake}))
	_, ok = s.KeyFor(model.Accelerate)
	assert.False(t, ok)
}
