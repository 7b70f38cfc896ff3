package struggle

import (
	"sync"
	"testing"
	"time"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/infrastructure/logger"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	signals []entity.StruggleSignal
}

func (r *recorder) sink(s entity.StruggleSignal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func (r *recorder) kinds() []entity.StruggleKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.StruggleKind
	for _, s := range r.signals {
		out = append(out, s.Kind)
	}
	return out
}

func newDetector() (*Detector, *clock.Mock, *recorder) {
	mock := clock.NewMock()
	rec := &recorder{}
	return NewDetector(DefaultConfig(), mock, rec.sink, logger.NewNopLogger()), mock, rec
}

var plain = []entity.NodeInfo{{Tag: "div"}, {Tag: "body"}, {Tag: "html"}}

func TestDetector_RageClick(t *testing.T) {
	d, mock, rec := newDetector()

	d.Click(plain)
	mock.Add(500 * time.Millisecond)
	d.Click(plain)
	mock.Add(500 * time.Millisecond)
	d.Click(plain)

	require.Equal(t, []entity.StruggleKind{entity.StruggleRepetitiveClicks}, rec.kinds())
	assert.Equal(t, mock.Now(), rec.signals[0].At)

	// counter was reset after the signal
	d.Click(plain)
	d.Click(plain)
	assert.Len(t, rec.kinds(), 1)
}

func TestDetector_RageClickWindowExpires(t *testing.T) {
	d, mock, rec := newDetector()

	d.Click(plain)
	d.Click(plain)
	mock.Add(2100 * time.Millisecond)
	d.Click(plain) // counter restarts at 1
	d.Click(plain)
	assert.Empty(t, rec.kinds())

	d.Click(plain)
	assert.Len(t, rec.kinds(), 1)
}

func TestDetector_InteractiveClickResets(t *testing.T) {
	d, _, rec := newDetector()

	d.Click(plain)
	d.Click(plain)
	d.Click([]entity.NodeInfo{{Tag: "span"}, {Tag: "button"}, {Tag: "body"}})
	d.Click(plain)
	d.Click(plain)
	assert.Empty(t, rec.kinds())
}

func TestIsInteractive(t *testing.T) {
	zero, neg := 0, -1
	tests := []struct {
		name  string
		chain []entity.NodeInfo
		want  bool
	}{
		{"plain div", plain, false},
		{"link with href", []entity.NodeInfo{{Tag: "A", Href: true}}, true},
		{"anchor without href", []entity.NodeInfo{{Tag: "a"}}, false},
		{"input", []entity.NodeInfo{{Tag: "input"}}, true},
		{"aria button", []entity.NodeInfo{{Tag: "div", Role: "button"}}, true},
		{"onclick ancestor", []entity.NodeInfo{{Tag: "span"}, {Tag: "div", OnClick: true}}, true},
		{"contenteditable", []entity.NodeInfo{{Tag: "div", ContentEditable: true}}, true},
		{"tabindex zero", []entity.NodeInfo{{Tag: "div", TabIndex: &zero}}, true},
		{"tabindex negative", []entity.NodeInfo{{Tag: "div", TabIndex: &neg}}, false},
		{"empty chain", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInteractive(tt.chain))
		})
	}
}

func TestChainFromNode(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
		<div id="card" tabindex="0"><span id="label">Card</span></div>
		<div id="text"><em id="em">text</em></div>
		<p contenteditable id="edit">x</p>
	</body></html>`, "")
	require.NoError(t, err)

	label, err := doc.QueryFirst("#label")
	require.NoError(t, err)
	chain := ChainFromNode(label)
	require.Len(t, chain, 4)
	assert.Equal(t, "span", chain[0].Tag)
	assert.Equal(t, "html", chain[3].Tag)
	assert.True(t, IsInteractive(chain))

	em, err := doc.QueryFirst("#em")
	require.NoError(t, err)
	assert.False(t, IsInteractive(ChainFromNode(em)))

	edit, err := doc.QueryFirst("#edit")
	require.NoError(t, err)
	assert.True(t, IsInteractive(ChainFromNode(edit)))
}

// scrollTo feeds samples from the current position to target in 50px steps.
func scrollTo(d *Detector, mock *clock.Mock, from, to float64) {
	step := 50.0
	if to < from {
		step = -step
	}
	for y := from; (step > 0 && y <= to) || (step < 0 && y >= to); y += step {
		d.Scroll(y)
		mock.Add(20 * time.Millisecond)
	}
}

func TestDetector_ScrollLoop(t *testing.T) {
	d, mock, rec := newDetector()

	scrollTo(d, mock, 0, 600)
	scrollTo(d, mock, 600, 100)
	scrollTo(d, mock, 100, 600)
	assert.Empty(t, rec.kinds())
	scrollTo(d, mock, 600, 100)

	require.Equal(t, []entity.StruggleKind{entity.StruggleScrollLoop}, rec.kinds())
}

func TestDetector_ScrollJitterIgnored(t *testing.T) {
	d, mock, rec := newDetector()

	for i := 0; i < 40; i++ {
		y := 300.0
		if i%2 == 0 {
			y += 100
		}
		d.Scroll(y)
		mock.Add(20 * time.Millisecond)
	}
	assert.Empty(t, rec.kinds())
}

func TestDetector_ScrollReversalsOutsideWindow(t *testing.T) {
	d, mock, rec := newDetector()

	scrollTo(d, mock, 0, 600)
	scrollTo(d, mock, 600, 100)
	mock.Add(5 * time.Second)
	scrollTo(d, mock, 100, 600)
	mock.Add(5 * time.Second)
	scrollTo(d, mock, 600, 100)
	assert.Empty(t, rec.kinds())
}

func TestDetector_Reset(t *testing.T) {
	d, _, rec := newDetector()

	d.Click(plain)
	d.Click(plain)
	d.Reset()
	d.Click(plain)
	assert.Empty(t, rec.kinds())
}

func TestDetector_InstancesAreIndependent(t *testing.T) {
	a, _, recA := newDetector()
	b, _, recB := newDetector()

	a.Click(plain)
	a.Click(plain)
	b.Click(plain)
	a.Click(plain)

	assert.Len(t, recA.kinds(), 1)
	assert.Empty(t, recB.kinds())
}
