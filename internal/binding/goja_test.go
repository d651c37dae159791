package binding

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/dop251/goja"

	"github.com/itsmostafa/goplot/internal/plot"
)

func runJS(t *testing.T, opts Options, src string) (*plot.Builder, string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Output = &out
	if opts.Plot == nil {
		opts.Plot = plot.NewBuilder()
	}
	h := NewHost(opts)
	vm := goja.New()
	if err := h.InstallJS(vm); err != nil {
		t.Fatalf("InstallJS() unexpected error: %v", err)
	}
	_, err := vm.RunString(src)
	return opts.Plot, out.String(), err
}

func TestJSPlotExample(t *testing.T) {
	b, _, err := runJS(t, Options{}, `const x = array([1, 2, 3]); plot(x, x.mul(2), {label: "double"});`)
	if err != nil {
		t.Fatalf("run unexpected error: %v", err)
	}
	spec := b.Snapshot()
	if len(spec.Series) != 1 {
		t.Fatalf("series count = %d, want 1", len(spec.Series))
	}
	if !reflect.DeepEqual(spec.Series[0].Y.Values, []float64{2, 4, 6}) || spec.Series[0].Label != "double" {
		t.Errorf("series = %+v", spec.Series[0])
	}
}

func TestJSScripts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "indexing",
			src:  `const m = zeros(2, 3); m[[1, 2]] = 4; m[0] = [1, 2, 3]; print(m[1][2], m[-1][-1], m[0]);`,
			want: "4 4 [1 2 3]\n",
		},
		{
			name: "attributes",
			src:  `const m = arange(6).reshape([2, 3]); console.log(m.shape, m.ndim, m.size, m.length);`,
			want: "2,3 2 6 2\n",
		},
		{
			name: "catch host errors by name",
			src: `try { ones([3, 2]).add(ones([4, 2])); } catch (e) { print(e.name); }
try { zeros(2)[5]; } catch (e) { print(e.name); }
try { plot([1], [1, 2]); } catch (e) { print(e.name); }`,
			want: "BroadcastError\nIndexOutOfBounds\nPlotArgumentError\n",
		},
		{
			name: "frozen row",
			src:  `const m = zeros(2, 2); try { m[0][1] = 3; } catch (e) { print(e.name); } print(m.sum());`,
			want: "TypeError\n0\n",
		},
		{
			name: "tolist round trip",
			src:  `const l = array([[1, 2], [3, 4]]).tolist(); print(l[1][0], Array.isArray(l));`,
			want: "3 true\n",
		},
		{
			name: "self-referencing list",
			src:  `const a = [0]; a[0] = a; try { array(a); } catch (e) { print(e.name, e.message.includes("nested deeper")); }`,
			want: "TypeError true\n",
		},
		{
			name: "len method",
			src:  `print(zeros(3, 2).len());`,
			want: "3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := runJS(t, Options{}, tt.src)
			if err != nil {
				t.Fatalf("run unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestJSBudgetCannotBeCaught(t *testing.T) {
	_, _, err := runJS(t, Options{MaxCalls: 3}, `for (;;) { try { zeros(1); } catch (e) {} }`)
	if err == nil {
		t.Fatal("run succeeded, want budget error")
	}
	if !errors.Is(err, ErrBudget) {
		t.Errorf("error = %v, want ErrBudget", err)
	}
}

func TestErrorName(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &plot.ArgumentError{Call: "plot", Msg: "x"}, want: "PlotArgumentError"},
		{err: typef("x"), want: "TypeError"},
		{err: errors.New("other"), want: "Error"},
	}
	for _, tt := range tests {
		if got := ErrorName(tt.err); got != tt.want {
			t.Errorf("ErrorName(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
