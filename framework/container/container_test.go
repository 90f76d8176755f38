package container_test

import (
	"slices"
	"testing"

	"github.com/km-arc/go-autoproxy/framework/container"
)

type repo struct{ n int }

type store interface{ Name() string }

func newCounter() (container.Factory, *int) {
	calls := 0
	return func(*container.Container) any {
		calls++
		return &repo{n: calls}
	}, &calls
}

// ── registration ──────────────────────────────────────────────────────────────

func TestBind_Transient(t *testing.T) {
	c := container.New()
	f, calls := newCounter()
	c.Bind("repo", f)

	a := c.Make("repo").(*repo)
	b := c.Make("repo").(*repo)
	if a == b || *calls != 2 {
		t.Errorf("Bind should build a new instance per Make (calls=%d)", *calls)
	}
	if c.Resolved("repo") {
		t.Error("transient bindings are never cached")
	}
}

func TestSingleton_Cached(t *testing.T) {
	c := container.New()
	f, calls := newCounter()
	c.Singleton("repo", f)

	if c.Make("repo") != c.Make("repo") || *calls != 1 {
		t.Errorf("Singleton should build once (calls=%d)", *calls)
	}
	if !c.Bound("repo") || !c.Resolved("repo") {
		t.Error("expected repo to be bound and resolved")
	}
}

func TestInstance(t *testing.T) {
	c := container.New()
	r := &repo{n: 7}
	c.Instance("repo", r)

	if got := container.Resolve[*repo](c, "repo"); got != r {
		t.Errorf("got %p want %p", got, r)
	}
	if c.Make("container") != c {
		t.Error("the container should be bound to itself")
	}
}

func TestMake_UnboundPanics(t *testing.T) {
	c := container.New()
	defer func() {
		if recover() == nil {
			t.Error("Make(missing) should panic")
		}
	}()
	c.Make("missing")
}

// ── aliases ───────────────────────────────────────────────────────────────────

func TestAlias_PostProcessedUnderCanonicalName(t *testing.T) {
	c := container.New()
	rec := &recorder{}
	c.AddPostProcessor(rec)
	c.Singleton("userRepository", func(*container.Container) any { return &repo{} })
	c.Alias("userRepository", "users")

	if c.Make("users") != c.Make("userRepository") {
		t.Error("alias and canonical name should share the singleton")
	}
	if !slices.Equal(rec.names, []string{"userRepository"}) {
		t.Errorf("post-processed names: got %v", rec.names)
	}
}

func TestAlias_SelfPanics(t *testing.T) {
	c := container.New()
	defer func() {
		if recover() == nil {
			t.Error("aliasing a name to itself should panic")
		}
	}()
	c.Alias("repo", "repo")
}

// ── extend ────────────────────────────────────────────────────────────────────

func TestExtend_BeforeAndAfterResolution(t *testing.T) {
	c := container.New()
	c.Singleton("n", func(*container.Container) any { return 1 })
	c.Extend("n", func(instance any, _ *container.Container) any { return instance.(int) * 10 })

	if got := c.Make("n"); got != 10 {
		t.Fatalf("first Extend: got %v want 10", got)
	}

	var rebound any
	c.Rebinding("n", func(v any) { rebound = v })
	c.Extend("n", func(instance any, _ *container.Container) any { return instance.(int) + 5 })

	if got := c.Make("n"); got != 15 {
		t.Errorf("second Extend: got %v want 15", got)
	}
	if rebound != 15 {
		t.Errorf("rebound callback: got %v want 15", rebound)
	}
}

// ── tags ──────────────────────────────────────────────────────────────────────

func TestTagged(t *testing.T) {
	c := container.New()
	c.Instance("cpu", &repo{n: 1})
	c.Instance("mem", &repo{n: 2})
	c.Tag([]string{"cpu"}, "reports")
	c.Tag([]string{"mem"}, "reports")

	got := c.Tagged("reports")
	if len(got) != 2 || got[0].(*repo).n != 1 || got[1].(*repo).n != 2 {
		t.Errorf("Tagged: got %v", got)
	}
	if len(c.Tagged("none")) != 0 {
		t.Error("an unknown tag should resolve to nothing")
	}
}

// ── callbacks ─────────────────────────────────────────────────────────────────

func TestRebinding_FiresOnReplacement(t *testing.T) {
	c := container.New()
	c.Singleton("repo", func(*container.Container) any { return &repo{n: 1} })
	c.Make("repo")

	var seen []int
	c.Rebinding("repo", func(v any) { seen = append(seen, v.(*repo).n) })

	c.Singleton("repo", func(*container.Container) any { return &repo{n: 2} })
	c.Instance("repo", &repo{n: 3})

	if !slices.Equal(seen, []int{2, 3}) {
		t.Errorf("rebound values: got %v want [2 3]", seen)
	}
}

func TestAfterResolving(t *testing.T) {
	c := container.New()
	c.Bind("repo", func(*container.Container) any { return &repo{} })

	var names []string
	c.AfterResolving(func(abstract string, _ any) { names = append(names, abstract) })
	c.Make("repo")
	c.Make("repo")

	if !slices.Equal(names, []string{"repo", "repo"}) {
		t.Errorf("AfterResolving: got %v", names)
	}
}

// ── forget / flush ────────────────────────────────────────────────────────────

func TestForget(t *testing.T) {
	c := container.New()
	c.Singleton("repo", func(*container.Container) any { return &repo{} })
	c.Make("repo")
	c.Forget("repo")

	if c.Bound("repo") || c.Resolved("repo") {
		t.Error("Forget should drop both binding and instance")
	}
}

func TestFlush(t *testing.T) {
	c := container.New()
	c.Bind("repo", func(*container.Container) any { return &repo{} })
	c.Flush()

	if len(c.Bindings()) != 0 {
		t.Errorf("Flush should clear everything, got %v", c.Bindings())
	}
}

func TestBindings(t *testing.T) {
	c := container.New()
	c.Bind("repo", func(*container.Container) any { return &repo{} })
	c.Instance("cfg", struct{}{})

	got := c.Bindings()
	slices.Sort(got)
	if !slices.Equal(got, []string{"cfg", "container", "repo"}) {
		t.Errorf("Bindings: got %v", got)
	}
}

// ── generics & reflect helpers ────────────────────────────────────────────────

func TestResolve_WrongTypePanics(t *testing.T) {
	c := container.New()
	c.Instance("repo", &repo{})
	defer func() {
		if recover() == nil {
			t.Error("Resolve with the wrong type should panic")
		}
	}()
	container.Resolve[string](c, "repo")
}

func TestMustResolve(t *testing.T) {
	c := container.New()
	c.Instance("repo", &repo{n: 4})

	if r, ok := container.MustResolve[*repo](c, "repo"); !ok || r.n != 4 {
		t.Errorf("MustResolve[*repo]: got %v, %v", r, ok)
	}
	if _, ok := container.MustResolve[store](c, "repo"); ok {
		t.Error("MustResolve should report a failed assertion")
	}
}

func TestTypeKey(t *testing.T) {
	const pkg = "github.com/km-arc/go-autoproxy/framework/container_test"
	if got := container.TypeKey(&repo{}); got != pkg+".repo" {
		t.Errorf("TypeKey(*repo): got %q", got)
	}
	if got := container.TypeKey((*store)(nil)); got != pkg+".store" {
		t.Errorf("TypeKey(*store): got %q", got)
	}
}
