package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hylla/anteck/internal/domain"
)

// ImportRich is the best-effort general-markdown import path: it parses
// foreign markdown with goldmark and maps emphasis, strong, strikethrough,
// links, raw <u> spans and task-list items onto the document model. Anything
// it cannot make sense of degrades to plain text with the given default
// style; it never fails.
func ImportRich(input string, def domain.StyleSet) (doc *domain.Document) {
	defer func() {
		if recover() != nil {
			doc = plainDoc(input, def)
		}
	}()

	src := []byte(input)
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.TaskList))
	root := md.Parser().Parse(text.NewReader(src))

	im := &importer{src: src, def: def}
	if err := ast.Walk(root, im.visit); err != nil {
		return plainDoc(input, def)
	}
	im.trimTrailingBreak()

	doc, err := domain.FromSegments(im.segs...)
	if err != nil {
		return plainDoc(input, def)
	}
	return doc
}

func plainDoc(input string, def domain.StyleSet) *domain.Document {
	doc, err := domain.FromSegments(domain.TextRun{Text: input, Style: def})
	if err != nil {
		return domain.NewDocument()
	}
	return doc
}

// importer accumulates segments while walking the goldmark AST, tracking the
// inline style context via counters.
type importer struct {
	src []byte
	def domain.StyleSet

	bold      int
	italic    int
	strike    int
	underline int
	links     []string

	inTask      bool
	taskChecked bool
	taskLabel   strings.Builder

	segs []domain.Segment
}

func (im *importer) cur() domain.StyleSet {
	s := im.def
	if im.bold > 0 {
		s.Bold = true
	}
	if im.italic > 0 {
		s.Italic = true
	}
	if im.strike > 0 {
		s.Strikethrough = true
	}
	if im.underline > 0 {
		s.Underline = true
	}
	if len(im.links) > 0 {
		s.Link = im.links[len(im.links)-1]
	}
	return s
}

func (im *importer) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Text:
		if entering {
			im.text(string(node.Segment.Value(im.src)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				im.text("\n")
			}
		}
	case *ast.String:
		if entering {
			im.text(string(node.Value))
		}
	case *ast.Emphasis:
		if node.Level >= 2 {
			im.bold += delta(entering)
		} else {
			im.italic += delta(entering)
		}
	case *east.Strikethrough:
		im.strike += delta(entering)
	case *ast.Link:
		if entering {
			im.links = append(im.links, string(node.Destination))
		} else {
			im.links = im.links[:len(im.links)-1]
		}
	case *ast.AutoLink:
		if entering {
			url := string(node.URL(im.src))
			im.segs = append(im.segs, domain.TextRun{Text: url, Style: styleWithLink(im.cur(), url)})
		}
	case *ast.RawHTML:
		if entering {
			im.rawHTML(node)
		}
	case *east.TaskCheckBox:
		if entering {
			im.inTask = true
			im.taskChecked = node.IsChecked
			im.taskLabel.Reset()
		}
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		if !entering {
			im.endBlock()
		}
	case *ast.CodeSpan:
		// Inline code imports as plain text via its child Text nodes.
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			im.codeBlock(n)
			im.endBlock()
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (im *importer) text(chunk string) {
	if chunk == "" {
		return
	}
	if im.inTask {
		im.taskLabel.WriteString(chunk)
		return
	}
	im.segs = append(im.segs, domain.TextRun{Text: chunk, Style: im.cur()})
}

// endBlock terminates the current block: a pending task item becomes a
// checkbox segment, plain blocks get a line break separator.
func (im *importer) endBlock() {
	if im.inTask {
		label := strings.TrimSpace(im.taskLabel.String())
		im.segs = append(im.segs, domain.NewCheckbox(im.taskChecked, label))
		im.segs = append(im.segs, domain.TextRun{Text: "\n", Style: im.def})
		im.inTask = false
		return
	}
	im.segs = append(im.segs, domain.TextRun{Text: "\n", Style: im.def})
}

func (im *importer) codeBlock(n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		im.text(string(seg.Value(im.src)))
	}
}

// rawHTML maps literal <u> spans onto the underline attribute and passes any
// other raw HTML through as text.
func (im *importer) rawHTML(node *ast.RawHTML) {
	var b strings.Builder
	for i := 0; i < node.Segments.Len(); i++ {
		seg := node.Segments.At(i)
		b.Write(seg.Value(im.src))
	}
	switch strings.ToLower(strings.TrimSpace(b.String())) {
	case "<u>":
		im.underline++
	case "</u>":
		if im.underline > 0 {
			im.underline--
		}
	default:
		im.text(b.String())
	}
}

// trimTrailingBreak drops the separator emitted after the final block.
func (im *importer) trimTrailingBreak() {
	if n := len(im.segs); n > 0 {
		if run, ok := im.segs[n-1].(domain.TextRun); ok && run.Text == "\n" {
			im.segs = im.segs[:n-1]
		}
	}
}

func styleWithLink(s domain.StyleSet, url string) domain.StyleSet {
	s.Link = url
	return s
}

func delta(entering bool) int {
	if entering {
		return 1
	}
	return -1
}
