package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lumigen/internal/analytics"
	"lumigen/internal/api"
	"lumigen/internal/auth"
	"lumigen/internal/chat"
	"lumigen/internal/course"
	"lumigen/internal/session"
)

const (
	selectPrefix  = "select:"
	deletePrefix  = "delete:"
	coursesAll    = "courses:all"
	coursesLess   = "courses:less"
	maxTranscript = 3500
)

const helpText = "Comandos:\n" +
	"/login <email> <senha> - entrar\n" +
	"/home - início\n" +
	"/menu - seus cursos\n" +
	"/profile - seu perfil\n" +
	"/new [título] - nova conversa\n" +
	"/chats - suas conversas\n" +
	"/rename <título> - renomear a conversa atual\n" +
	"/logout - sair\n\n" +
	"Qualquer outra mensagem é enviada ao assistente."

const loginFirstText = "Faça login primeiro: /login <email> <senha>"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cs := b.chat(msg.Chat.ID)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(cs.chatID, "Bem-vindo ao Lumigen!\n\n"+helpText)
		return
	case "login":
		b.handleLogin(ctx, cs, args)
		return
	case "report":
		b.handleReportCommand(ctx, cs)
		return
	}

	sess, ok := cs.sessions.Current()
	if !ok || cs.engine == nil {
		b.sendMessage(cs.chatID, loginFirstText)
		return
	}

	switch msg.Command() {
	case "logout":
		b.stopEngine(cs)
		cs.sessions.Logout()
		cs.expanded = false
		log.Printf("chat %d logged out", cs.chatID)
		b.sendMessage(cs.chatID, "Você saiu da sua conta.")
	case "home":
		b.sendHome(ctx, cs, sess)
	case "menu", "courses":
		cs.expanded = false
		text, kb := b.menu(ctx, cs, sess)
		b.sendWithKeyboard(cs.chatID, text, kb)
	case "profile":
		b.sendMessage(cs.chatID, profileText(sess.User))
	case "new":
		conv := cs.engine.NewConversation(args)
		b.sendMessage(cs.chatID, fmt.Sprintf("Nova conversa: %s", conv.Title))
	case "chats":
		b.sendConversations(cs)
	case "rename":
		b.handleRename(cs, args)
	default:
		b.sendMessage(cs.chatID, helpText)
	}
}

func (b *Bot) handleLogin(ctx context.Context, cs *chatState, args string) {
	email, password, _ := strings.Cut(args, " ")
	sess, err := b.opts.Auth.Login(ctx, email, strings.TrimSpace(password))
	if err != nil {
		var ve *auth.ValidationError
		var ne *api.NetworkError
		switch {
		case errors.As(err, &ve):
			b.sendMessage(cs.chatID, ve.Error()+"\nUso: /login <email> <senha>")
		case errors.As(err, &ne) && ne.Message != "":
			log.Printf("login failed for chat %d: %v", cs.chatID, err)
			b.sendMessage(cs.chatID, ne.Message)
		default:
			log.Printf("login failed for chat %d: %v", cs.chatID, err)
			b.sendMessage(cs.chatID, "Não foi possível entrar agora. Tente novamente.")
		}
		return
	}

	b.stopEngine(cs)
	cs.sessions.Login(sess)
	b.startEngine(cs, sess)
	log.Printf("chat %d logged in as %s", cs.chatID, sess.User.DisplayName())
	b.sendHome(ctx, cs, sess)
}

func (b *Bot) sendHome(ctx context.Context, cs *chatState, sess session.Session) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Olá, %s!\n\nContinue de onde parou:\n", sess.User.DisplayName())
	courses := course.Visible(b.opts.Courses.ForSession(ctx, sess), false)
	if len(courses) == 0 {
		sb.WriteString("Nenhum curso encontrado.\n")
	}
	for _, c := range courses {
		fmt.Fprintf(&sb, "• %s (%d%%)\n", c.Title, c.Progress)
	}
	sb.WriteString("\nEnvie uma mensagem para conversar com o assistente.")
	b.sendMessage(cs.chatID, sb.String())
}

func (b *Bot) menu(ctx context.Context, cs *chatState, sess session.Session) (string, tgbotapi.InlineKeyboardMarkup) {
	all := b.opts.Courses.ForSession(ctx, sess)
	var sb strings.Builder
	sb.WriteString("Meus cursos\n\n")
	if len(all) == 0 {
		sb.WriteString("Nenhum curso encontrado.")
	}
	for _, c := range course.Visible(all, cs.expanded) {
		fmt.Fprintf(&sb, "• %s\n  %s %d%%\n", c.Title, progressBar(c.Progress), c.Progress)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup()
	if len(all) > course.CollapsedCount {
		label, data := "Ver todos", coursesAll
		if cs.expanded {
			label, data = "Ver menos", coursesLess
		}
		kb = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, data),
		))
	}
	return sb.String(), kb
}

func progressBar(pct int) string {
	pct = max(0, min(100, pct))
	filled := pct / 10
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

func profileText(p session.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Perfil\n\nNome: %s\n", p.DisplayName())
	if p.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", p.Email)
	}
	if p.ID != "" {
		fmt.Fprintf(&sb, "ID: %s\n", p.ID)
	}
	return sb.String()
}

func (b *Bot) sendConversations(cs *chatState) {
	convs := cs.engine.Conversations()
	if len(convs) == 0 {
		b.sendMessage(cs.chatID, "Nenhuma conversa ainda. Envie uma mensagem para começar.")
		return
	}
	active, _ := cs.engine.ActiveID()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(convs))
	for _, c := range convs {
		label := c.Title
		if c.ID == active {
			label = "● " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, selectPrefix+c.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", deletePrefix+c.ID),
		))
	}
	b.sendWithKeyboard(cs.chatID, "Suas conversas:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleRename(cs *chatState, title string) {
	if title == "" {
		b.sendMessage(cs.chatID, "Uso: /rename <título>")
		return
	}
	id, ok := cs.engine.ActiveID()
	if !ok || !cs.engine.Rename(id, title) {
		b.sendMessage(cs.chatID, "Nenhuma conversa selecionada.")
		return
	}
	b.sendMessage(cs.chatID, fmt.Sprintf("Conversa renomeada para: %s", title))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	cs := b.chat(msg.Chat.ID)
	if _, ok := cs.sessions.Current(); !ok || cs.engine == nil {
		b.sendMessage(cs.chatID, loginFirstText)
		return
	}
	log.Printf("message from %s in chat %d: %q", userLabel(cs), cs.chatID, msg.Text)

	_, err := cs.engine.Send(ctx, msg.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
	case errors.Is(err, chat.ErrBusy):
		b.sendMessage(cs.chatID, "Aguarde a resposta anterior terminar.")
	case err != nil:
		log.Printf("send failed in chat %d: %v", cs.chatID, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	if cb.Message == nil {
		return
	}
	cs := b.chat(cb.Message.Chat.ID)
	sess, ok := cs.sessions.Current()
	if !ok || cs.engine == nil {
		b.sendMessage(cs.chatID, loginFirstText)
		return
	}

	switch {
	case cb.Data == coursesAll || cb.Data == coursesLess:
		cs.expanded = cb.Data == coursesAll
		text, kb := b.menu(ctx, cs, sess)
		edit := tgbotapi.NewEditMessageText(cs.chatID, cb.Message.MessageID, text)
		if len(kb.InlineKeyboard) > 0 {
			edit.ReplyMarkup = &kb
		}
		if _, err := b.s.Send(edit); err != nil {
			log.Printf("failed to update menu: %v", err)
		}
	case strings.HasPrefix(cb.Data, selectPrefix):
		id := strings.TrimPrefix(cb.Data, selectPrefix)
		msgs, ok := cs.engine.Select(id)
		if !ok {
			b.sendMessage(cs.chatID, "Conversa não encontrada.")
			return
		}
		conv, _ := cs.engine.Conversation(id)
		b.sendMessage(cs.chatID, formatTranscript(conv.Title, msgs))
	case strings.HasPrefix(cb.Data, deletePrefix):
		id := strings.TrimPrefix(cb.Data, deletePrefix)
		if !cs.engine.Delete(id) {
			b.sendMessage(cs.chatID, "Conversa não encontrada.")
			return
		}
		b.sendMessage(cs.chatID, "Conversa excluída.")
	}
}

// formatTranscript renders the most recent messages that fit in one
// Telegram message.
func formatTranscript(title string, msgs []chat.Message) string {
	if len(msgs) == 0 {
		return title + "\n\nConversa vazia. Envie uma mensagem para começar."
	}
	parts := make([]string, 0, len(msgs))
	size := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		var who string
		switch msgs[i].Role {
		case chat.RoleUser:
			who = "Você"
		case chat.RoleAssistant:
			who = "Lumigen"
		}
		p := who + ": " + msgs[i].Content
		size += len([]rune(p))
		if size > maxTranscript && len(parts) > 0 {
			break
		}
		parts = append(parts, p)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return title + "\n\n" + strings.Join(parts, "\n\n")
}

func (b *Bot) handleReportCommand(ctx context.Context, cs *chatState) {
	if b.opts.AdminChatID == 0 || cs.chatID != b.opts.AdminChatID {
		b.sendMessage(cs.chatID, "Comando disponível apenas para o administrador.")
		return
	}
	if err := b.SendDailyReport(ctx); err != nil {
		log.Printf("report failed: %v", err)
		b.sendMessage(cs.chatID, fmt.Sprintf("Erro ao gerar relatório: %v", err))
	}
}

// SendDailyReport summarises today's recorded exchanges to the admin chat.
func (b *Bot) SendDailyReport(_ context.Context) error {
	if b.opts.Recorder == nil {
		return errors.New("no recorder configured")
	}
	events, err := b.opts.Recorder.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	summary := analytics.AnalyzeDailyLogs(events, b.now().UTC()).GenerateReportSummary()
	if b.opts.AdminChatID == 0 {
		log.Printf("daily report (no admin chat configured):\n%s", summary)
		return nil
	}
	b.sendMessage(b.opts.AdminChatID, summary)
	return nil
}
