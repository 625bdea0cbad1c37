package check_test

import (
	"errors"
	"testing"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/check"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiag() *diag.Diagnostics {
	cfg := diag.DefaultConfig()
	cfg.Apply()
	return diag.New(cfg, nil)
}

func TestRequestCachesResult(t *testing.T) {
	s := check.NewScheduler(newDiag(), diag.DefaultConfig(), nil, nil)
	calls := 0
	build := func(s *check.Scheduler) (int, error) {
		calls++
		return 42, nil
	}

	v1, err1 := check.Request(s, "answer", build)
	v2, err2 := check.Request(s, "answer", build)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 42, v1)
	assert.Equal(t, 42, v2)
	assert.Equal(t, 1, calls)
}

func TestRequestCachesFailure(t *testing.T) {
	s := check.NewScheduler(newDiag(), diag.DefaultConfig(), nil, nil)
	sentinel := errors.New("boom")
	calls := 0
	build := func(s *check.Scheduler) (int, error) {
		calls++
		return 0, sentinel
	}

	_, err1 := check.Request(s, "broken", build)
	_, err2 := check.Request(s, "broken", build)

	assert.ErrorIs(t, err1, sentinel)
	assert.ErrorIs(t, err2, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRequestDetectsCycle(t *testing.T) {
	s := check.NewScheduler(newDiag(), diag.DefaultConfig(), nil, nil)

	var build check.Func[int]
	build = func(s *check.Scheduler) (int, error) {
		return check.Request(s, "cyclic", build)
	}

	_, err := check.Request(s, "cyclic", build)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestRequestOptionalIsolatesFailure(t *testing.T) {
	s := check.NewScheduler(newDiag(), diag.DefaultConfig(), nil, nil)
	build := func(s *check.Scheduler) (int, error) {
		return 0, errors.New("boom")
	}

	v, ok := check.RequestOptional(s, "optional", build)
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestRequestIfSkipsWhenPredicateFalse(t *testing.T) {
	s := check.NewScheduler(newDiag(), diag.DefaultConfig(), nil, nil)
	calls := 0
	build := func(s *check.Scheduler) (int, error) {
		calls++
		return 1, nil
	}

	v, ok := check.RequestIf(s, "conditional", false, build)
	assert.False(t, ok)
	assert.Equal(t, 0, v)
	assert.Equal(t, 0, calls)

	v, ok = check.RequestIf(s, "conditional", true, build)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)
}

func TestRegistrarAllReturnsRegistered(t *testing.T) {
	before := len(check.All())
	check.Register(check.TopLevel{
		Descriptor: check.Descriptor{Name: "test-registrar-check"},
		Run:        func(s *check.Scheduler) error { return nil },
	})
	assert.Equal(t, before+1, len(check.All()))
}

type fakeFile struct{ present bool }

func (f fakeFile) AnyDebugSectionPresent() bool { return f.present }

func TestNoDebugPassesWhenSectionsPresent(t *testing.T) {
	d := newDiag()
	ok := check.NoDebug(fakeFile{present: true}, false, d)
	assert.True(t, ok)
	assert.False(t, d.HasErrors())
}

func TestNoDebugFailsWithoutFlag(t *testing.T) {
	d := newDiag()
	ok := check.NoDebug(fakeFile{present: false}, false, d)
	assert.False(t, ok)
	assert.True(t, d.HasErrors())
}

func TestNoDebugWarnsWithFlag(t *testing.T) {
	d := newDiag()
	ok := check.NoDebug(fakeFile{present: false}, true, d)
	assert.True(t, ok)
	assert.False(t, d.HasErrors())
	assert.NotEmpty(t, d.All())
}
