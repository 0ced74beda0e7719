package render

import (
	"fmt"
	"strconv"

	"github.com/skelly-dev/srcweb/internal/anchor"
	"github.com/skelly-dev/srcweb/internal/strbuf"
)

// slotKey turns a slot value into the fragment it links to.
func slotKey(value int) string {
	switch value {
	case anchor.PageTop:
		return "TOP"
	case anchor.PageBottom:
		return "BOTTOM"
	default:
		return strconv.Itoa(value)
	}
}

// linkFormat appends the inline guide for links: every slot in order, data
// slots linked only when present, index and help always linked.
func (r *Renderer) linkFormat(b *strbuf.Buffer, links anchor.Links) {
	v := r.voc
	labels := v.AnchorLabel
	if r.opts.Icons {
		labels = v.AnchorComment
	}

	for i := 0; i < anchor.SlotLimit; i++ {
		slot := anchor.Slot(i)
		linked := true
		switch slot {
		case anchor.IndexSlot:
			r.gen.HrefBegin(b, "..", "mains", v.Suffix, "")
		case anchor.HelpSlot:
			r.gen.HrefBegin(b, "..", "help", v.Suffix, "")
		default:
			value := links[slot]
			linked = value != anchor.Absent
			if linked {
				r.gen.HrefBegin(b, "", "", "", slotKey(value))
			}
		}

		if r.opts.Icons {
			icon := v.AnchorIcons[i]
			if !linked {
				icon = "n_" + icon
			}
			r.gen.Image(b, "..", icon, labels[i])
		} else {
			b.PushBack('[')
			b.AppendString(labels[i])
			b.PushBack(']')
		}
		if linked {
			r.gen.HrefEnd(b)
		}
	}
}

// fixedGuideLinkFormat appends the page-level guide bar: first, last, top,
// bottom, index and help, then the breadcrumb.
func (r *Renderer) fixedGuideLinkFormat(b *strbuf.Buffer, links anchor.Links, breadcrumb []byte) error {
	v := r.voc
	b.AppendString("<!-- beginning of fixed guide -->\n")
	b.AppendString(v.GuideBegin)
	b.PushBack('\n')
	for i := 0; i < anchor.SlotLimit; i++ {
		slot := anchor.Slot(i)
		if slot == anchor.Prev || slot == anchor.Next {
			continue
		}
		if err := r.fixedGuideUnit(b, slot, links); err != nil {
			return err
		}
	}
	b.AppendString(v.GuidePathBegin)
	b.Append(breadcrumb)
	b.AppendString(v.GuidePathEnd)
	b.PushBack('\n')
	b.AppendString(v.GuideEnd)
	b.PushBack('\n')
	b.AppendString("<!-- end of fixed guide -->\n")
	return nil
}

func (r *Renderer) fixedGuideUnit(b *strbuf.Buffer, slot anchor.Slot, links anchor.Links) error {
	v := r.voc
	switch slot {
	case anchor.First, anchor.Last:
		value := links[slot]
		if value == anchor.Absent {
			if slot == anchor.First {
				value = anchor.PageTop
			} else {
				value = anchor.PageBottom
			}
		}
		b.AppendString(v.GuideUnitBegin)
		r.gen.HrefBegin(b, "", "", "", slotKey(value))
	case anchor.Top:
		b.AppendString(v.GuideUnitBegin)
		r.gen.HrefBegin(b, "", "", "", "TOP")
	case anchor.Bottom:
		b.AppendString(v.GuideUnitBegin)
		r.gen.HrefBegin(b, "", "", "", "BOTTOM")
	case anchor.IndexSlot:
		b.AppendString(v.GuideUnitBegin)
		r.gen.HrefBegin(b, "..", "mains", v.Suffix, "")
	case anchor.HelpSlot:
		b.AppendString(v.GuideUnitBegin)
		r.gen.HrefBegin(b, "..", "help", v.Suffix, "")
	default:
		return fmt.Errorf("%w: %s (%d)", ErrUnknownSlot, slot, int(slot))
	}

	if r.opts.Icons {
		r.gen.Image(b, "..", v.AnchorIcons[slot], v.AnchorLabel[slot])
	} else {
		b.PushBack('[')
		b.AppendString(v.AnchorLabel[slot])
		b.PushBack(']')
	}
	r.gen.HrefEnd(b)
	b.AppendString(v.GuideUnitEnd)
	b.PushBack('\n')
	return nil
}

// generateGuide fills guideBuf with the guide comment of a definition line.
func (r *Renderer) generateGuide(line int) {
	b := r.guideBuf
	b.Clear()

	indent := 0
	if r.opts.Header == HeaderRight {
		indent = 4
	} else if r.opts.LineNumbers {
		indent = r.opts.NumberWidth + 1
	}
	for ; indent > 0; indent-- {
		b.PushBack(' ')
	}
	b.AppendString(r.voc.CommentBegin)
	b.AppendString("/* ")
	r.linkFormat(b, r.anchors.LinksFor(line))
	if r.opts.ShowPosition {
		r.position(b, line)
	}
	b.AppendString(" */")
	b.AppendString(r.voc.CommentEnd)
}

// position appends the "[+N path]" marker.
func (r *Renderer) position(b *strbuf.Buffer, line int) {
	b.AppendString(r.voc.QuoteSpace)
	b.AppendString(r.voc.PositionBegin)
	b.AppendString("[+")
	b.AppendInt(line)
	b.PushBack(' ')
	r.gen.Escape(b, r.file.path)
	b.PushBack(']')
	b.AppendString(r.voc.PositionEnd)
}

// navComment appends the navigation comment printed above or below the
// source.
func (r *Renderer) navComment(b *strbuf.Buffer, links anchor.Links, line int) {
	b.AppendString(r.voc.CommentBegin)
	b.AppendString("/* ")
	r.linkFormat(b, links)
	if r.opts.ShowPosition {
		r.position(b, line)
	}
	b.AppendString(" */")
	b.AppendString(r.voc.CommentEnd)
	b.PushBack('\n')
}
