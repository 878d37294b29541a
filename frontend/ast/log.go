package ast

import (
	"context"
	"fmt"
	"log/slog"
)

// Slog wraps a Node as a slog.LogValuer so that expression strings are
// only rendered when the record is actually emitted
func Slog(node Node) slog.LogValuer {
	return nodeLogValuer{node}
}

type nodeLogValuer struct{ Node }

func (l nodeLogValuer) LogValue() slog.Value {
	if expr, ok := l.Node.(Expr); ok {
		return slog.GroupValue(
			slog.String("id", expr.ID().String()),
			slog.String("expr", ExprString(expr)),
		)
	}
	return slog.StringValue(fmt.Sprintf("%T %s@%s", l.Node, l.ID(), RangeOf(l.Node)))
}

// NodeHandler wraps underlying so that any attribute holding a Node is
// rendered lazily through Slog
func NodeHandler(underlying slog.Handler) slog.Handler {
	return &nodeLogHandler{underlying: underlying}
}

type nodeLogHandler struct {
	underlying slog.Handler
}

func wrapNodeAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	if node, isNode := attr.Value.Any().(Node); isNode && node != nil {
		return slog.Any(attr.Key, Slog(node))
	}
	return attr
}

func (l *nodeLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.underlying.Enabled(ctx, level)
}

func (l *nodeLogHandler) Handle(ctx context.Context, record slog.Record) error {
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		newRecord.AddAttrs(wrapNodeAttr(attr))
		return true
	})
	return l.underlying.Handle(ctx, newRecord)
}

func (l *nodeLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	wrapped := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		wrapped[i] = wrapNodeAttr(attr)
	}
	return NodeHandler(l.underlying.WithAttrs(wrapped))
}

func (l *nodeLogHandler) WithGroup(name string) slog.Handler {
	return NodeHandler(l.underlying.WithGroup(name))
}
