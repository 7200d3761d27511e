package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/voicequotes/core/logger"
	"github.com/m3rciful/voicequotes/core/telegram/callbacks"
)

const maxButtonLabel = 32

func (m *Machine) listQuotes(ctx context.Context, ev Action) Outcome {
	page, err := callbacks.IntAt(ev.Payload, 0)
	if err != nil || page < 0 {
		page = 0
	}
	return m.renderQuotes(ctx, page)
}

func (m *Machine) renderQuotes(ctx context.Context, page int) Outcome {
	items, total, err := m.quotes.ListPage(ctx, m.pageSize, page*m.pageSize)
	if err != nil {
		return m.storageFailure(ctx, "quotes.list_page", err)
	}
	if total == 0 {
		return m.edited(reply(textNoQuotes, row(button(labelMenu, ActionMenu))))
	}
	pages := (total + m.pageSize - 1) / m.pageSize
	if page >= pages {
		page = pages - 1
		if items, _, err = m.quotes.ListPage(ctx, m.pageSize, page*m.pageSize); err != nil {
			return m.storageFailure(ctx, "quotes.list_page", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, textQuotesHeader, page+1, pages)
	rows := make([][]Button, 0, len(items)+2)
	for i, q := range items {
		fmt.Fprintf(&b, "\n%d. %s", page*m.pageSize+i+1, q.Title)
		rows = append(rows, row(button(
			fmt.Sprintf(labelDelete, truncate(q.Title, maxButtonLabel)),
			ActionDeleteQuote,
			callbacks.Join(strconv.FormatInt(q.ID, 10), strconv.Itoa(page)),
		)))
	}

	var nav []Button
	if page > 0 {
		nav = append(nav, button(labelPrev, ActionListQuotes, strconv.Itoa(page-1)))
	}
	if page < pages-1 {
		nav = append(nav, button(labelNext, ActionListQuotes, strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, row(button(labelMenu, ActionMenu)))
	return m.edited(reply(b.String(), rows...))
}

func (m *Machine) deleteQuote(ctx context.Context, ev Action) Outcome {
	id, err := callbacks.Int64At(ev.Payload, 0)
	if err != nil {
		return failed(newError(KindInvalidInput, "quotes.delete", err), textUnknownAction)
	}
	page, err := callbacks.IntAt(ev.Payload, 1)
	if err != nil || page < 0 {
		page = 0
	}
	if err := m.quotes.DeleteByID(ctx, id); err != nil {
		return m.storageFailure(ctx, "quotes.delete", err)
	}
	logger.Info(ctx, component, "quote.deleted",
		slog.String("status", "ok"),
		slog.Int64("quote_id", id),
	)
	return m.renderQuotes(ctx, page)
}

func (m *Machine) listAdmins(ctx context.Context, in Inbound) Outcome {
	entries, err := m.admins.ListAll(ctx)
	if err != nil {
		return m.storageFailure(ctx, "admins.list", err)
	}

	var b strings.Builder
	b.WriteString(textAdminsHeader)
	rows := make([][]Button, 0, len(entries)+1)
	for _, e := range entries {
		name := displayName(e.UserID, e.Username)
		fmt.Fprintf(&b, "\n• %s (%d)", name, e.UserID)
		if e.UserID == in.UserID {
			continue
		}
		rows = append(rows, row(button(
			fmt.Sprintf(labelRemove, truncate(name, maxButtonLabel)),
			ActionRemoveAdmin,
			strconv.FormatInt(e.UserID, 10),
		)))
	}
	rows = append(rows, row(button(labelAddAdmin, ActionAddAdmin)), row(button(labelMenu, ActionMenu)))
	return m.edited(reply(b.String(), rows...))
}

func (m *Machine) removeAdmin(ctx context.Context, in Inbound, ev Action) Outcome {
	target, err := callbacks.Int64At(ev.Payload, 0)
	if err != nil {
		return failed(newError(KindInvalidInput, "admins.remove", err), textUnknownAction)
	}
	if target == in.UserID {
		return failed(newError(KindInvalidInput, "admins.remove", nil), textSelfRemoval)
	}
	if err := m.admins.Remove(ctx, target); err != nil {
		return m.storageFailure(ctx, "admins.remove", err)
	}
	logger.Info(ctx, component, "admin.removed",
		slog.String("status", "ok"),
		slog.Int64("user_id", in.UserID),
		slog.Int64("target_user_id", target),
	)
	return m.listAdmins(ctx, in)
}

func (m *Machine) edited(out Outcome) Outcome {
	for i := range out.Replies {
		out.Replies[i].EditMenu = true
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
