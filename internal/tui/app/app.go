// Package app wires the composer, layout engine, chat log, selectors,
// popups, and turn orchestrator into the single bubbletea program that
// owns the terminal for a chat session. It runs in bubbletea's inline
// (non-altscreen) mode: completed chat entries are printed straight into
// native scrollback via tea.Println, and only the bottom UI — popup,
// progress, input, status, or a full-height selector — is redrawn each
// frame, painted through the regions internal/layout computes.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ion-cli/ion/internal/agent"
	"github.com/ion-cli/ion/internal/chatmodel"
	"github.com/ion-cli/ion/internal/clipboard"
	"github.com/ion-cli/ion/internal/composer"
	"github.com/ion-cli/ion/internal/config"
	"github.com/ion-cli/ion/internal/dispatch"
	"github.com/ion-cli/ion/internal/input"
	"github.com/ion-cli/ion/internal/layout"
	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/picker"
	"github.com/ion-cli/ion/internal/popup"
	"github.com/ion-cli/ion/internal/session"
	"github.com/ion-cli/ion/internal/skills"
	"github.com/ion-cli/ion/internal/style"
	"github.com/ion-cli/ion/internal/termio"
	"github.com/ion-cli/ion/internal/usage"
)

// Model is the bubbletea model for one chat session.
type Model struct {
	width, height int
	prevTop       int

	theme    *style.Theme
	composer *composer.Composer

	mode         layout.Mode
	chord        dispatch.ChordState
	popup        *popup.Popup
	sel          *picker.Selector
	historyQuery string

	entries []*chatmodel.MessageEntry
	cache   *chatmodel.EntryCache
	dedup   *chatmodel.ErrorDedup
	nextID  int64

	cfg      *config.Config
	store    session.Store
	sess     *session.Session
	orch     *agent.Orchestrator
	provider llm.Provider
	skills   *skills.Registry
	pricing  *usage.PricingFetcher

	turn      *agent.TurnState
	turnEvent <-chan llm.Event

	quitting bool
	err      error
}

// New builds a Model ready for bubbletea. provider/model name the turn's
// default target; store persists messages as they complete.
func New(cfg *config.Config, store session.Store, sess *session.Session, provider llm.Provider, engine *llm.Engine) *Model {
	theme := style.Current()

	registry, err := skills.NewRegistry(skills.DefaultRegistryConfig())
	if err != nil {
		registry = nil
	}

	return &Model{
		theme:    theme,
		composer: composer.New(80, theme),
		mode:     layout.ModeInput,
		cache:    chatmodel.NewEntryCache(256),
		dedup:    chatmodel.NewErrorDedup(),
		cfg:      cfg,
		store:    store,
		sess:     sess,
		provider: provider,
		skills:   registry,
		pricing:  usage.NewPricingFetcher(),
		orch:     agent.New(engine, sess.Provider, sess.Model),
	}
}

// Init starts the program inline, never switching to the alternate screen:
// native scrollback must stay intact so completed entries sit in real
// terminal history once printed (no alternate screen; scrollback
// preserved).
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.composer.Focus(), tea.EnableBracketedPaste())
}

// turnEventMsg wraps one llm.Event pulled off the turn's channel.
type turnEventMsg struct {
	event llm.Event
	ok    bool
}

func waitForEvent(ch <-chan llm.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		return turnEventMsg{event: event, ok: ok}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch mm := msg.(type) {
	case turnEventMsg:
		_, cmd = m.handleTurnEvent(mm)
	default:
		state := dispatch.State{
			Mode:              m.mode,
			TurnRunning:       m.turn != nil,
			ComposerEmpty:     strings.TrimSpace(m.composer.Value()) == "",
			PopupOpen:         m.popup != nil,
			PopupHasSelection: m.popup != nil && m.popup.List.Len() > 0,
			Now:               time.Now(),
		}
		action := dispatch.Handle(msg, state, &m.chord)
		_, cmd = m.apply(action, msg)
	}

	if flush := m.commitScrollback(); flush != nil {
		cmd = tea.Batch(cmd, flush)
	}
	return m, cmd
}

// commitScrollback prints every entry line that hasn't yet been printed to
// native scrollback, via tea.Println, holding back the in-flight streaming
// entry (it still mutates) until the turn that's writing it ends.
func (m *Model) commitScrollback() tea.Cmd {
	if m.width <= 0 {
		return nil
	}

	liveIdx := -1
	if m.turn != nil && len(m.entries) > 0 && m.entries[len(m.entries)-1].Sender == chatmodel.SenderAgent {
		liveIdx = len(m.entries) - 1
	}

	var toPrint []style.StyledLine
	for i, e := range m.entries {
		if i == liveIdx {
			continue
		}
		lines := e.StyledLines(m.width, m.theme)
		if e.CommittedLinesInScrollback >= len(lines) {
			continue
		}
		toPrint = append(toPrint, lines[e.CommittedLinesInScrollback:]...)
		e.CommittedLinesInScrollback = len(lines)
	}
	if len(toPrint) == 0 {
		return nil
	}
	return tea.Println(style.RenderLines(toPrint, m.theme))
}

func (m *Model) apply(action dispatch.Action, msg tea.Msg) (tea.Model, tea.Cmd) {
	switch action.Kind {
	case dispatch.ActionResize:
		m.width, m.height = action.Width, action.Height
		m.composer.SetWidth(action.Width)
		for _, e := range m.entries {
			e.InvalidateCache()
		}
		return m, nil

	case dispatch.ActionQuit:
		m.quitting = true
		return m, tea.Quit

	case dispatch.ActionClearComposer:
		m.composer.SetValue("")
		m.popup = nil
		return m, nil

	case dispatch.ActionCancelTurn:
		m.orch.Cancel()
		return m, nil

	case dispatch.ActionInterject:
		text := m.composer.ResolvedValue()
		m.composer.Reset()
		m.orch.Interject(text)
		return m, nil

	case dispatch.ActionSubmit:
		return m.submit()

	case dispatch.ActionCopyLastResponse:
		return m.copyLastResponse()

	case dispatch.ActionOpenHistorySearch:
		m.mode = layout.ModeHistorySearch
		m.historyQuery = ""
		m.composer.StartRecall()
		m.popup = popup.New(popup.KindHistory, popup.HistoryItems(m.composer.RecallMatches()), "")
		return m, nil

	case dispatch.ActionCloseHistorySearch:
		m.composer.CancelRecall()
		m.mode = layout.ModeInput
		m.historyQuery = ""
		m.popup = nil
		return m, nil

	case dispatch.ActionCloseSelector:
		m.mode = layout.ModeInput
		m.sel = nil
		return m, nil

	case dispatch.ActionOpenSelector:
		return m.openSelector(action.Selector)

	case dispatch.ActionSelectConfirm:
		return m.confirmSelection()

	case dispatch.ActionClosePopup:
		m.popup = nil
		return m, m.forwardToComposer(msg)

	case dispatch.ActionAcceptPopup:
		return m.acceptPopup()

	case dispatch.ActionUpdatePopup:
		return m.movePopupCursor(msg)

	case dispatch.ActionEditComposer:
		return m.editComposer(msg)

	default:
		return m, nil
	}
}

// forwardToComposer relays a tea.Msg to the composer without reopening a
// trigger, used after a popup dismissal that shouldn't reconsider the text
// just typed as a fresh trigger match.
func (m *Model) forwardToComposer(msg tea.Msg) tea.Cmd {
	return m.composer.Update(msg)
}

// editComposer routes a key to whichever surface owns input in the current
// mode: the selector's filter, the history-search query, or (ordinarily)
// the composer textarea plus its popup-trigger detection.
func (m *Model) editComposer(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case layout.ModeSelector:
		return m.editSelector(msg)
	case layout.ModeHistorySearch:
		return m.editHistoryQuery(msg)
	default:
		cmd := m.composer.Update(msg)
		m.refreshPopup()
		return m, cmd
	}
}

// editSelector updates the active selector's cursor or fuzzy filter without
// touching the composer buffer underneath it.
func (m *Model) editSelector(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.sel == nil {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "ctrl+p":
		m.sel.List.MoveUp()
	case "down", "ctrl+n":
		m.sel.List.MoveDown()
	case "backspace":
		f := m.sel.List.Filter()
		if len(f) > 0 {
			_, size := utf8.DecodeLastRuneInString(f)
			m.sel.List.SetFilter(f[:len(f)-size])
		}
	default:
		if key.Type == tea.KeyRunes {
			m.sel.List.SetFilter(m.sel.List.Filter() + string(key.Runes))
		} else if key.Type == tea.KeySpace {
			m.sel.List.SetFilter(m.sel.List.Filter() + " ")
		}
	}
	return m, nil
}

// editHistoryQuery appends to the Ctrl+R search query and re-narrows the
// composer's recall session, leaving the composer's own buffer untouched
// (it's restored, not overwritten, when a match is accepted).
func (m *Model) editHistoryQuery(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyBackspace:
		if len(m.historyQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.historyQuery)
			m.historyQuery = m.historyQuery[:len(m.historyQuery)-size]
		}
	case tea.KeyRunes:
		m.historyQuery += string(key.Runes)
	case tea.KeySpace:
		m.historyQuery += " "
	default:
		return m, nil
	}
	m.composer.UpdateRecall(m.historyQuery)
	m.popup = popup.New(popup.KindHistory, popup.HistoryItems(m.composer.RecallMatches()), "")
	return m, nil
}

// movePopupCursor moves the open popup's selection up or down without
// touching the composer buffer the popup floats above.
func (m *Model) movePopupCursor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.popup == nil {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up":
		m.popup.List.MoveUp()
	case "down":
		m.popup.List.MoveDown()
	}
	return m, nil
}

func (m *Model) refreshPopup() {
	text := m.composer.Value()
	trig, ok := popup.Detect(text, len(text))
	if !ok {
		m.popup = nil
		return
	}
	if m.popup != nil && m.popup.Kind == trig.Kind {
		m.popup.SetQuery(trig.Query)
		return
	}
	m.popup = popup.New(trig.Kind, m.popupItems(trig.Kind), trig.Query)
}

func (m *Model) popupItems(kind popup.Kind) []picker.Item {
	switch kind {
	case popup.KindCommand:
		return popup.CommandItems(commandNames, commandDescriptions)

	case popup.KindFile:
		root := m.sess.CWD
		if root == "" {
			root, _ = os.Getwd()
		}
		if root == "" {
			return nil
		}
		entries, err := input.WalkAttachable(root)
		if err != nil {
			return nil
		}
		fileEntries := make([]popup.FileEntry, len(entries))
		for i, e := range entries {
			fileEntries[i] = popup.FileEntry{RelPath: e.RelPath, IsDir: e.IsDir}
		}
		return popup.FileItems(fileEntries)

	case popup.KindSkill:
		if m.skills == nil {
			return nil
		}
		list, err := m.skills.List()
		if err != nil {
			return nil
		}
		return popup.SkillItems(list)

	case popup.KindHistory:
		return popup.HistoryItems(m.composer.RecallMatches())

	default:
		return nil
	}
}

func (m *Model) acceptPopup() (tea.Model, tea.Cmd) {
	if m.mode == layout.ModeHistorySearch {
		m.composer.AcceptRecall()
		m.mode = layout.ModeInput
		m.historyQuery = ""
		m.popup = nil
		return m, nil
	}
	if m.popup == nil {
		return m, nil
	}
	text, ok := m.popup.Accept()
	if !ok {
		m.popup = nil
		return m, nil
	}
	m.popup = nil
	m.composer.SetValue(text + " ")
	return m, nil
}

// openSelector handles dispatch.ActionOpenSelector: the action carries only
// a layout.Mode (there's one selector overlay region, not one per kind), so
// which selector opens is decided by the /model, /provider, /resume slash
// commands that build one and call afterOpenSelector directly. This case
// exists so the action itself isn't silently dropped if a future dispatch
// key binding starts emitting it.
func (m *Model) openSelector(layout.Mode) (tea.Model, tea.Cmd) {
	m.composer.Reset()
	m.popup = nil
	m.mode = layout.ModeSelector
	return m, nil
}

func (m *Model) confirmSelection() (tea.Model, tea.Cmd) {
	if m.sel == nil {
		m.mode = layout.ModeInput
		return m, nil
	}
	id, ok := m.sel.Selected()
	m.mode = layout.ModeInput
	sel := m.sel
	m.sel = nil
	if !ok {
		return m, nil
	}
	switch sel.Kind {
	case picker.KindProvider:
		m.sess.Provider = id
		m.orch.SetTarget(m.sess.Provider, m.sess.Model)
	case picker.KindModel:
		m.sess.Model = id
		m.orch.SetTarget(m.sess.Provider, m.sess.Model)
	case picker.KindSession:
		return m.resumeSession(id)
	}
	return m, nil
}

// resumeSession replaces the active session and chat log with a
// previously-stored one, converting its persisted messages back into
// display entries.
func (m *Model) resumeSession(id string) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("error loading session: %v", err), nil)
		return m, nil
	}
	msgs, err := m.store.GetMessages(ctx, id, 0, 0)
	if err != nil {
		m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("error loading messages: %v", err), nil)
		return m, nil
	}

	m.sess = sess
	m.entries = nil
	m.nextID = 0
	m.dedup = chatmodel.NewErrorDedup()
	for _, msg := range msgs {
		m.appendStoredMessage(msg)
	}
	m.orch.SetTarget(sess.Provider, sess.Model)
	return m, nil
}

func (m *Model) appendStoredMessage(msg session.Message) {
	text := msg.ExtractTextContent()
	sender := senderForRole(msg.Role)
	if text == "" && sender != chatmodel.SenderTool {
		return
	}
	m.appendEntry(sender, text, nil)
}

func senderForRole(r llm.Role) chatmodel.Sender {
	switch r {
	case llm.RoleUser:
		return chatmodel.SenderUser
	case llm.RoleAssistant:
		return chatmodel.SenderAgent
	case llm.RoleTool:
		return chatmodel.SenderTool
	default:
		return chatmodel.SenderSystem
	}
}

// submit intercepts slash commands and skill invocations before falling
// back to starting a turn from the composer's resolved text.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.composer.ResolvedValue()
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "//") {
		return m.invokeSkill(trimmed)
	}
	if strings.HasPrefix(trimmed, "/") {
		if model, cmd, handled := m.runCommand(trimmed); handled {
			return model, cmd
		}
	}

	m.composer.Reset()
	m.popup = nil

	m.appendEntry(chatmodel.SenderUser, text, nil)
	return m.startTurn(llm.Request{
		Model:    m.sess.Model,
		Messages: m.buildMessages(),
	})
}

// buildMessages converts the canonical chat log into the provider's
// message history, so every turn after the first carries the full
// conversation instead of only the newest user line.
func (m *Model) buildMessages() []llm.Message {
	msgs := make([]llm.Message, 0, len(m.entries))
	for _, e := range m.entries {
		switch e.Sender {
		case chatmodel.SenderUser:
			if e.Text != "" {
				msgs = append(msgs, llm.UserText(e.Text))
			}
		case chatmodel.SenderAgent:
			if e.Text != "" {
				msgs = append(msgs, llm.AssistantText(e.Text))
			}
		case chatmodel.SenderTool:
			if e.Tool == nil {
				continue
			}
			content := e.Tool.Stdout
			if e.Tool.IsError && e.Tool.Stderr != "" {
				content = e.Tool.Stderr
			}
			msgs = append(msgs, llm.ToolResultMessage(e.Tool.Name, e.Tool.Name, content))
		}
	}
	return msgs
}

func (m *Model) startTurn(req llm.Request) (tea.Model, tea.Cmd) {
	events, turn, err := m.orch.Start(context.Background(), req)
	if err != nil {
		m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("error starting turn: %v", err), nil)
		return m, nil
	}
	m.turn = turn
	m.turnEvent = events
	return m, waitForEvent(events)
}

// invokeSkill resolves the //name prefix against the skill registry and
// starts a turn with the skill's body injected as a leading system message,
// the rest of the line passed through as the user's request.
func (m *Model) invokeSkill(trimmed string) (tea.Model, tea.Cmd) {
	rest := strings.TrimPrefix(trimmed, "//")
	name, arg, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)

	m.composer.Reset()
	m.popup = nil

	if m.skills == nil || name == "" {
		m.appendEntry(chatmodel.SenderSystem, "no skill name given", nil)
		return m, nil
	}
	sk, err := m.skills.Get(name)
	if err != nil {
		m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("skill not found: %s", name), nil)
		return m, nil
	}

	m.appendEntry(chatmodel.SenderUser, "//"+rest, nil)
	messages := append([]llm.Message{llm.SystemText(sk.Body)}, m.buildMessages()...)
	_ = arg // the skill body already carries instructions; arg rides along inside the logged user text
	return m.startTurn(llm.Request{Model: m.sess.Model, Messages: messages})
}

// runCommand executes a recognized /command, returning handled=false for
// anything it doesn't own so submit falls back to treating the line as a
// literal message.
func (m *Model) runCommand(trimmed string) (tea.Model, tea.Cmd, bool) {
	fields := strings.Fields(trimmed)
	name := strings.TrimPrefix(fields[0], "/")

	switch name {
	case "quit":
		m.quitting = true
		return m, tea.Quit, true

	case "clear":
		m.entries = nil
		m.composer.Reset()
		m.popup = nil
		fmt.Fprint(os.Stdout, termio.ClearScreenAndScrollback)
		return m, tea.ClearScreen, true

	case "help":
		m.composer.Reset()
		m.popup = nil
		m.appendEntry(chatmodel.SenderSystem, helpText(), nil)
		return m, nil, true

	case "provider":
		m.sel = picker.NewProviderSelector(m.cfg, m.sess.Provider)
		return m.afterOpenSelector()

	case "model":
		m.sel = picker.NewModelSelector(context.Background(), m.provider, m.sess.Model)
		return m.afterOpenSelector()

	case "resume":
		sel, err := picker.NewSessionSelector(context.Background(), m.store, session.ListOptions{})
		if err != nil {
			m.composer.Reset()
			m.popup = nil
			m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("error listing sessions: %v", err), nil)
			return m, nil, true
		}
		m.sel = sel
		return m.afterOpenSelector()

	case "new", "save", "sessions", "compact":
		m.composer.Reset()
		m.popup = nil
		m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("/%s is not yet implemented", name), nil)
		return m, nil, true

	default:
		return m, nil, false
	}
}

func (m *Model) afterOpenSelector() (tea.Model, tea.Cmd, bool) {
	m.composer.Reset()
	m.popup = nil
	m.mode = layout.ModeSelector
	return m, nil, true
}

func helpText() string {
	return "Commands: /help /clear /quit /model /provider /resume /new /save /sessions /compact\n" +
		"Type //name to invoke a skill, @path to attach a file, ctrl+r to search input history."
}

func (m *Model) handleTurnEvent(mm turnEventMsg) (tea.Model, tea.Cmd) {
	if !mm.ok {
		m.turn = nil
		m.turnEvent = nil
		return m, nil
	}

	switch mm.event.Type {
	case llm.EventTextDelta:
		m.appendStreamingText(mm.event.Text)
	case llm.EventError:
		if m.dedup.ShouldEmit(currentTurnID(m.turn), mm.event.Err.Error()) {
			m.appendEntry(chatmodel.SenderSystem, mm.event.Err.Error(), nil)
		}
	case llm.EventToolExecEnd:
		m.appendEntry(chatmodel.SenderTool, "", &chatmodel.ToolMeta{
			Name:    mm.event.ToolName,
			Stdout:  mm.event.ToolOutput,
			IsError: !mm.event.ToolSuccess,
		})
	}

	return m, waitForEvent(m.turnEvent)
}

// appendStreamingText folds a text delta into the most recent agent entry,
// starting a new one if the last entry isn't an in-progress agent message.
func (m *Model) appendStreamingText(delta string) {
	if n := len(m.entries); n > 0 && m.entries[n-1].Sender == chatmodel.SenderAgent {
		m.entries[n-1].Text += delta
		m.entries[n-1].InvalidateCache()
		return
	}
	m.appendEntry(chatmodel.SenderAgent, delta, nil)
}

func (m *Model) appendEntry(sender chatmodel.Sender, text string, tool *chatmodel.ToolMeta) {
	m.nextID++
	m.entries = append(m.entries, &chatmodel.MessageEntry{
		ID:     m.nextID,
		Sender: sender,
		Text:   text,
		Tool:   tool,
	})
}

// copyLastResponse copies the most recent agent entry's text to the system
// clipboard, reporting failure or absence as a system entry.
func (m *Model) copyLastResponse() (tea.Model, tea.Cmd) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Sender == chatmodel.SenderAgent {
			if err := clipboard.CopyText(m.entries[i].Text); err != nil {
				m.appendEntry(chatmodel.SenderSystem, fmt.Sprintf("failed to copy: %v", err), nil)
				return m, nil
			}
			m.appendEntry(chatmodel.SenderSystem, "Copied last response to clipboard.", nil)
			return m, nil
		}
	}
	m.appendEntry(chatmodel.SenderSystem, "No assistant response to copy.", nil)
	return m, nil
}

func currentTurnID(t *agent.TurnState) string {
	if t == nil {
		return ""
	}
	return t.Started.String()
}

// View paints the bottom UI for the current frame: a full-height selector
// in Selector mode, or the popup/progress/input/status stack in Input and
// HistorySearch modes. Region placement comes entirely from layout.Compute;
// nothing here decides a row number itself. The frame is bracketed in
// terminal synchronized-update mode so a slow terminal never shows a
// half-painted redraw, and the cursor is parked at the composer's insertion
// point via termio.MoveTo once painting is done.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	popupHeight := 0
	if m.popup != nil {
		popupHeight = m.popup.Height(layout.MaxPopupHeight)
	}
	selHeight := 0
	if m.sel != nil {
		selHeight = height
	}

	ui := layout.Compute(layout.Inputs{
		Mode:           m.mode,
		TermWidth:      width,
		TermHeight:     height,
		PrevTop:        m.prevTop,
		PopupHeight:    popupHeight,
		InputHeight:    m.composer.Height(),
		SelectorHeight: selHeight,
	})
	m.prevTop = ui.Top

	var b strings.Builder
	b.WriteString(termio.HideCursor)
	b.WriteString(termio.BeginSync)
	b.WriteString(termio.MoveTo(ui.ClearFrom, 0))
	b.WriteString(termio.ClearFromCursor)

	switch {
	case ui.Body.Selector != nil:
		b.WriteString(m.renderSelector(ui.Body.Selector.Region, width))
	case ui.Body.HistorySearch != nil:
		b.WriteString(m.renderHistorySearch(ui.Body.HistorySearch, width))
	default:
		b.WriteString(m.renderInput(ui.Body.Input, width))
	}

	b.WriteString(termio.EndSync)
	return b.String()
}

func (m *Model) renderSelector(region layout.Region, width int) string {
	lines := m.sel.Render(width, region.Height, picker.DefaultRowStyle())
	return style.RenderLines(lines, m.theme) + termio.MoveTo(region.Row, 0) + termio.ShowCursor
}

func (m *Model) renderInput(ib *layout.InputBody, width int) string {
	var lines []string
	if ib.Popup != nil && m.popup != nil {
		lines = append(lines, renderStyledLines(m.popup.Render(width, ib.Popup.Height, picker.DefaultRowStyle()), m.theme)...)
	}
	lines = append(lines, m.renderProgress(width))
	lines = append(lines, m.composer.View())
	lines = append(lines, m.renderStatus(width))

	row, col := m.cursorPosition(ib.Input)
	return strings.Join(lines, "\n") + termio.MoveTo(row, col) + termio.ShowCursor
}

func (m *Model) renderHistorySearch(hb *layout.HistorySearchBody, width int) string {
	var lines []string
	if m.popup != nil {
		lines = append(lines, renderStyledLines(m.popup.Render(width, hb.Popup.Height, picker.DefaultRowStyle()), m.theme)...)
	}
	lines = append(lines, m.renderProgress(width))
	lines = append(lines, m.composer.View())

	searchLine := style.StyledLine{
		{Text: "(reverse-i-search) ", Fg: style.FgPrimary, Bold: true},
		{Text: m.historyQuery, Fg: style.FgText},
	}
	lines = append(lines, style.Render(style.Pad(searchLine, width), m.theme))

	col := utf8.RuneCountInString("(reverse-i-search) ") + utf8.RuneCountInString(m.historyQuery)
	return strings.Join(lines, "\n") + termio.MoveTo(hb.Search.Row, col) + termio.ShowCursor
}

func (m *Model) renderProgress(width int) string {
	if m.turn == nil {
		hint := style.StyledLine{{Text: "/ for commands · @ to attach · // for skills · ctrl+r history", Fg: style.FgMuted, Dim: true}}
		return style.Render(style.Pad(hint, width), m.theme)
	}

	elapsed := m.turn.Elapsed().Round(time.Second)
	cost := m.turn.CostUSD(m.pricing)
	tokens := m.turn.InputTokens + m.turn.OutputTokens
	phase := m.turn.Phase.String()
	if m.turn.Phase == agent.PhaseTool && m.turn.ToolName != "" {
		phase = fmt.Sprintf("%s(%s)", phase, m.turn.ToolName)
	}
	text := fmt.Sprintf("%s… %s · %d tok · $%.4f", phase, elapsed, tokens, cost)
	line := style.StyledLine{{Text: text, Fg: style.FgSecondary}}
	return style.Render(style.Pad(line, width), m.theme)
}

func (m *Model) renderStatus(width int) string {
	text := fmt.Sprintf("%s/%s", m.sess.Provider, m.sess.Model)
	if m.err != nil {
		text = fmt.Sprintf("%s · error: %v", text, m.err)
	}
	line := style.StyledLine{{Text: text, Fg: style.FgMuted, Dim: true}}
	return style.Render(style.Pad(line, width), m.theme)
}

// cursorPosition locates the composer's insertion point within region,
// accounting for the prompt prefix and any line the buffer has wrapped to.
func (m *Model) cursorPosition(region layout.Region) (row, col int) {
	lines := strings.Split(m.composer.Value(), "\n")
	row = region.Row + len(lines) - 1
	col = utf8.RuneCountInString("❯ ") + utf8.RuneCountInString(lines[len(lines)-1])
	return row, col
}

func renderStyledLines(lines []style.StyledLine, theme *style.Theme) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = style.Render(l, theme)
	}
	return out
}

var commandNames = []string{"help", "clear", "quit", "model", "provider", "new", "save", "sessions", "resume", "compact"}

var commandDescriptions = map[string]string{
	"help":     "Show help and available commands",
	"clear":    "Clear conversation history",
	"quit":     "Exit chat",
	"model":    "Switch model",
	"provider": "Switch provider",
	"new":      "Start a new session",
	"save":     "Save session with a name",
	"sessions": "List saved sessions",
	"resume":   "Browse and resume a previous session",
	"compact":  "Compact conversation context into a summary",
}
