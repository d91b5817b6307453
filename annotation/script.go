package annotation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lewtec/demarcador/internal/detector"
	"github.com/lewtec/demarcador/internal/domain"
	"github.com/lewtec/demarcador/internal/geometry"
	"github.com/lewtec/demarcador/internal/session"
)

// ErrUnknownCommand is returned for a script line that names no command
var ErrUnknownCommand = errors.New("unknown command")

// Editor drives a session with a line oriented command script, one command
// per line. Blank lines and lines starting with # are ignored.
type Editor struct {
	Project  *Project
	Session  *session.Session
	Images   []string
	Detector detector.Detector
	Out      io.Writer

	interaction *session.Interaction
}

// NewEditor opens images[index] in a new session over store
func NewEditor(p *Project, store *domain.Store, images []string, index int, out io.Writer) (*Editor, error) {
	s := p.NewSession(store)
	if err := p.OpenImage(s, images, index); err != nil {
		return nil, err
	}
	return &Editor{
		Project:     p,
		Session:     s,
		Images:      images,
		Out:         out,
		interaction: session.NewInteraction(s, geometry.Identity, p.Config.DefaultClass()),
	}, nil
}

// Run executes every command of r. The working list is committed at the end.
func (e *Editor) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := e.Exec(ctx, strings.Fields(line)); err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while reading script: %w", err)
	}
	e.Session.CommitCurrent()
	return nil
}

type args []string

func (a args) ints(n int) ([]int, error) {
	if len(a) < n {
		return nil, fmt.Errorf("expected %d numbers, got %d arguments", n, len(a))
	}
	ret := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(a[i])
		if err != nil {
			return nil, fmt.Errorf("while parsing %q: %w", a[i], err)
		}
		ret[i] = v
	}
	return ret, nil
}

func (a args) floats(n int) ([]float64, error) {
	if len(a) < n {
		return nil, fmt.Errorf("expected %d numbers, got %d arguments", n, len(a))
	}
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(a[i], 64)
		if err != nil {
			return nil, fmt.Errorf("while parsing %q: %w", a[i], err)
		}
		ret[i] = v
	}
	return ret, nil
}

func (a args) index() (int, error) {
	v, err := a.ints(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (a args) word(i int) (string, error) {
	if len(a) <= i {
		return "", fmt.Errorf("missing argument %d", i+1)
	}
	return a[i], nil
}

func (e *Editor) report(ok bool, format string, v ...any) {
	if ok {
		fmt.Fprintf(e.Out, format+"\n", v...)
	} else {
		fmt.Fprintf(e.Out, "ignored: %s\n", fmt.Sprintf(format, v...))
	}
}

func (e *Editor) open(index int) error {
	e.Session.CommitCurrent()
	if err := e.Project.OpenImage(e.Session, e.Images, index); err != nil {
		return err
	}
	e.interaction.Select(-1)
	fmt.Fprintf(e.Out, "image %d %s\n", index, e.Session.ImageID())
	return nil
}

// Exec runs a single command
func (e *Editor) Exec(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	s := e.Session
	w, h := s.Dimensions()
	a := args(fields[1:])

	switch fields[0] {
	case "add":
		v, err := a.ints(4)
		if err != nil {
			return err
		}
		class, color := e.Project.Config.DefaultClass(), ""
		if len(a) > 4 {
			class = a[4]
		}
		if len(a) > 5 {
			color = a[5]
		}
		ann := s.Add(domain.BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, class, color)
		e.report(true, "added %d %s", s.Len()-1, ann.ClassName)
	case "delete":
		i, err := a.index()
		if err != nil {
			return err
		}
		e.report(s.Delete(i), "delete %d", i)
	case "move":
		v, err := a.ints(3)
		if err != nil {
			return err
		}
		ok := s.Move(v[0], v[1], v[2], w, h)
		if ok {
			s.Checkpoint()
		}
		e.report(ok, "move %d", v[0])
	case "resize":
		i, err := a.index()
		if err != nil {
			return err
		}
		edit := geometry.Edit{}
		for _, pair := range a[1:] {
			name, value, found := strings.Cut(pair, "=")
			edge, ok := geometry.ParseEdge(name)
			if !found || !ok {
				return fmt.Errorf("resize expects x1=, y1=, x2= or y2=, got %q", pair)
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("while parsing %q: %w", pair, err)
			}
			edit[edge] = n
		}
		ok := s.EditBBox(i, edit, w, h)
		if ok {
			s.Checkpoint()
		}
		e.report(ok, "resize %d", i)
	case "class":
		i, err := a.index()
		if err != nil {
			return err
		}
		name, err := a.word(1)
		if err != nil {
			return err
		}
		e.report(s.SetClass(i, name), "class %d %s", i, name)
	case "color":
		i, err := a.index()
		if err != nil {
			return err
		}
		color, err := a.word(1)
		if err != nil {
			return err
		}
		e.report(s.SetColor(i, color), "color %d %s", i, color)
	case "toggle":
		i, err := a.index()
		if err != nil {
			return err
		}
		e.report(s.ToggleVisible(i), "toggle %d", i)
	case "copy":
		i, err := a.index()
		if err != nil {
			return err
		}
		e.report(s.Copy(i), "copy %d", i)
	case "paste":
		_, ok := s.Paste(w, h)
		e.report(ok, "paste %d", s.Len()-1)
	case "undo":
		e.report(s.Undo(), "undo")
	case "redo":
		e.report(s.Redo(), "redo")
	case "checkpoint":
		s.Checkpoint()
	case "zoom":
		v, err := a.floats(3)
		if err != nil {
			return err
		}
		e.interaction.Viewport = geometry.Viewport{Zoom: v[0], PanX: v[1], PanY: v[2]}
	case "hit":
		v, err := a.floats(2)
		if err != nil {
			return err
		}
		i, ok := s.HitTest(v[0], v[1], e.interaction.Viewport)
		if !ok {
			i = -1
		}
		fmt.Fprintf(e.Out, "hit %d\n", i)
	case "select":
		i, err := a.index()
		if err != nil {
			return err
		}
		e.interaction.Select(i)
	case "press", "drag", "release":
		v, err := a.floats(2)
		if err != nil {
			return err
		}
		switch fields[0] {
		case "press":
			fmt.Fprintf(e.Out, "%s\n", e.interaction.Press(v[0], v[1]))
		case "drag":
			e.interaction.Drag(v[0], v[1])
		case "release":
			if ann, ok := e.interaction.Release(v[0], v[1]); ok {
				fmt.Fprintf(e.Out, "drawn %d %s\n", s.Len()-1, ann.ClassName)
			}
		}
	case "predict":
		if e.Detector == nil {
			return fmt.Errorf("no detector configured")
		}
		class := ""
		if len(a) > 0 {
			class = a[0]
		}
		dets, err := e.Detector.Predict(ctx, e.Project.DetectorRequest(s.ImageID(), class))
		if err != nil {
			return fmt.Errorf("while predicting %s: %w", s.ImageID(), err)
		}
		fmt.Fprintf(e.Out, "pending %d\n", s.Ingest(dets))
	case "pending":
		for i, ann := range s.Pending() {
			fmt.Fprintf(e.Out, "%d %s %.2f %d %d %d %d\n", i, ann.ClassName, ann.Provenance.Confidence,
				ann.BBox.X1, ann.BBox.Y1, ann.BBox.X2, ann.BBox.Y2)
		}
	case "relabel":
		i, err := a.index()
		if err != nil {
			return err
		}
		name, err := a.word(1)
		if err != nil {
			return err
		}
		e.report(s.SetPendingClass(i, name), "relabel %d %s", i, name)
	case "drop":
		i, err := a.index()
		if err != nil {
			return err
		}
		e.report(s.DropPending(i), "drop %d", i)
	case "approve":
		fmt.Fprintf(e.Out, "approved %d\n", len(s.Approve()))
	case "reject":
		fmt.Fprintf(e.Out, "rejected %d\n", s.Reject())
	case "complete":
		e.report(s.MarkComplete(), "complete %s", s.ImageID())
	case "next", "prev", "goto":
		index := s.ImageIndex()
		switch fields[0] {
		case "next":
			index++
		case "prev":
			index--
		case "goto":
			i, err := a.index()
			if err != nil {
				return err
			}
			index = i
		}
		if index < 0 || index >= len(e.Images) {
			e.report(false, "%s", fields[0])
			return nil
		}
		return e.open(index)
	case "list":
		for i, ann := range s.Working() {
			fmt.Fprintf(e.Out, "%d %s %d %d %d %d %s %t\n", i, ann.ClassName,
				ann.BBox.X1, ann.BBox.Y1, ann.BBox.X2, ann.BBox.Y2, ann.Color, ann.Visible)
		}
	default:
		return fmt.Errorf("%q: %w", fields[0], ErrUnknownCommand)
	}
	return nil
}
