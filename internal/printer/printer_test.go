package printer

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/harrison/toygrep/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, opts Options, msgs ...Message) (string, string, Report) {
	t.Helper()
	var out, errOut bytes.Buffer
	p := New(&out, &errOut, opts)
	s := p.Start()
	for _, m := range msgs {
		s.Send(m)
	}
	s.Close()
	rep := p.Wait()
	return out.String(), errOut.String(), rep
}

func TestImmediateMode(t *testing.T) {
	out, errOut, rep := run(t, Options{Mode: Immediate, LineNumbers: true},
		Printable("a.txt", 2, []byte("beta\n")),
		EndOfReading("a.txt"),
		Printable("a.txt", 7, []byte("last line no newline")),
	)

	assert.Equal(t, "2:beta\n7:last line no newline\n", out)
	assert.Empty(t, errOut)
	assert.Equal(t, 3, rep.Messages)
	assert.Equal(t, 2, rep.LinesPrinted)
	assert.Zero(t, rep.BlocksFlushed)
}

func TestLineNumbersOmitted(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		num   int
		wants string
	}{
		{name: "disabled", opts: Options{LineNumbers: false}, num: 3, wants: "x\n"},
		{name: "unnumbered stream", opts: Options{LineNumbers: true}, num: 0, wants: "x\n"},
		{name: "enabled", opts: Options{LineNumbers: true}, num: 3, wants: "3:x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, _ := run(t, tt.opts, Printable("<stdin>", tt.num, []byte("x\n")))
			assert.Equal(t, tt.wants, out)
		})
	}
}

func TestGroupedModeFlushesOnEndOfReading(t *testing.T) {
	out, _, rep := run(t, Options{Mode: Grouped, LineNumbers: true},
		Printable("a.txt", 1, []byte("a one\n")),
		Printable("b.txt", 4, []byte("b four\n")),
		Printable("a.txt", 3, []byte("a three\n")),
		EndOfReading("b.txt"),
		EndOfReading("c.txt"),
		EndOfReading("a.txt"),
	)

	assert.Equal(t, "b.txt\n4:b four\n\na.txt\n1:a one\n3:a three\n", out)
	assert.Equal(t, 2, rep.BlocksFlushed)
	assert.Equal(t, 3, rep.LinesPrinted)
}

func TestGroupedModeFlushesLeftoversOnClose(t *testing.T) {
	out, _, _ := run(t, Options{Mode: Grouped},
		Printable("z.txt", 1, []byte("z\n")),
		Printable("y.txt", 1, []byte("y\n")),
	)
	assert.Equal(t, "y.txt\ny\n\nz.txt\nz\n", out)
}

func TestDisplayMessage(t *testing.T) {
	out, _, _ := run(t, Options{Mode: Grouped}, Display("hello\n"))
	assert.Equal(t, "hello\n", out)
}

func TestGroupedBlocksNeverInterleave(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, nil, Options{Mode: Grouped, QueueSize: 1})
	s := p.Start()

	const targets = 6
	const lines = 50

	var wg sync.WaitGroup
	for i := 0; i < targets; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("t%d", i)
			for n := 1; n <= lines; n++ {
				s.Send(Printable(name, n, []byte(fmt.Sprintf("%s-%d\n", name, n))))
			}
			s.Send(EndOfReading(name))
		}(i)
	}
	wg.Wait()
	s.Close()
	p.Wait()

	blocks := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n\n")
	require.Len(t, blocks, targets)

	seen := make(map[string]bool)
	for _, block := range blocks {
		rows := strings.Split(block, "\n")
		name := rows[0]
		assert.False(t, seen[name], "target %s flushed twice", name)
		seen[name] = true

		require.Len(t, rows, lines+1)
		for n, row := range rows[1:] {
			assert.Equal(t, fmt.Sprintf("%s-%d", name, n+1), row)
		}
	}
}

func TestColorizedRendering(t *testing.T) {
	m, err := matcher.NewBuilder("beta").Build()
	require.NoError(t, err)

	out, _, _ := run(t, Options{Mode: Immediate, Matcher: m, LineNumbers: true, Color: true},
		Printable("a.txt", 2, []byte("alpha beta gamma beta\n")),
	)

	assert.Equal(t,
		"\x1b[32m2:\x1b[0malpha \x1b[31;1mbeta\x1b[0m gamma \x1b[31;1mbeta\x1b[0m\n",
		out)
}

func TestForcedColorResetsWithoutTerminal(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })

	m, err := matcher.NewBuilder("needle").Build()
	require.NoError(t, err)

	out, _, _ := run(t, Options{Mode: Grouped, Matcher: m, LineNumbers: true, Color: true},
		Printable("a.txt", 1, []byte("x needle y\n")),
		EndOfReading("a.txt"),
	)

	assert.Equal(t,
		"\x1b[35ma.txt\x1b[0m\n\x1b[32m1:\x1b[0mx \x1b[31;1mneedle\x1b[0m y\n",
		out)
	assert.Equal(t, strings.Count(out, "\x1b[0m"), strings.Count(out, "\x1b[3"), "every colour is reset")
}

func TestMatcherWithoutColorIsVerbatim(t *testing.T) {
	m, err := matcher.NewBuilder("beta").Build()
	require.NoError(t, err)

	out, _, _ := run(t, Options{Matcher: m, LineNumbers: true},
		Printable("a.txt", 2, []byte("alpha beta\n")),
	)
	assert.Equal(t, "2:alpha beta\n", out)
}

func TestInvalidUTF8IsReported(t *testing.T) {
	m, err := matcher.NewBuilder("beta").Build()
	require.NoError(t, err)

	out, errOut, rep := run(t, Options{Matcher: m, LineNumbers: true},
		Printable("bin.dat", 5, []byte("\xffbeta\xfe\n")),
		Printable("ok.txt", 1, []byte("beta\n")),
	)

	assert.Equal(t, "5:�beta�\n1:beta\n", out)
	assert.Contains(t, errOut, "bin.dat:5")
	assert.Equal(t, 1, rep.DecodeErrors)
	assert.Equal(t, 2, rep.LinesPrinted)
}

func TestSenderCloseIsIdempotent(t *testing.T) {
	p := New(&bytes.Buffer{}, nil, Options{})
	s := p.Start()
	s.Close()
	s.Close()
	rep := p.Wait()
	assert.Zero(t, rep.Messages)
}

func TestNullSink(t *testing.T) {
	var s Sink = Null{}
	s.Send(Printable("x", 1, []byte("y")))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, Immediate, ModeFor(true))
	assert.Equal(t, Grouped, ModeFor(false))
	assert.Equal(t, "grouped", Grouped.String())
	assert.Equal(t, "end-of-reading", KindEndOfReading.String())
}
