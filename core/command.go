package core

import "roverbot/protocol"

// CommandHandler decodes its own arguments and replies through the
// telemetry link if the message has a response.
type CommandHandler func(args *protocol.Decoder) error

// Command is one registered message handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string
	Handler CommandHandler
}

// CommandRegistry maps fixed message IDs to handlers. Registration happens
// once at startup, before the link starts feeding frames.
type CommandRegistry struct {
	commands []Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

// Register binds h to the message id from the protocol table, replacing
// any previous handler.
func (r *CommandRegistry) Register(id uint16, h CommandHandler) error {
	f, ok := protocol.Lookup(id)
	if !ok {
		return ErrUnknownCommand
	}
	for len(r.commands) <= int(id) {
		r.commands = append(r.commands, Command{})
	}
	r.commands[id] = Command{ID: id, Name: f.Name, Format: f.Format, Handler: h}
	return nil
}

// Command returns the registration of id.
func (r *CommandRegistry) Command(id uint16) (Command, bool) {
	if int(id) >= len(r.commands) || r.commands[id].Handler == nil {
		return Command{}, false
	}
	return r.commands[id], true
}

// Count returns the number of registered handlers.
func (r *CommandRegistry) Count() int {
	n := 0
	for _, c := range r.commands {
		if c.Handler != nil {
			n++
		}
	}
	return n
}

// Dispatch runs the handler of id. It has the signature the link expects.
func (r *CommandRegistry) Dispatch(id uint16, args *protocol.Decoder) error {
	cmd, ok := r.Command(id)
	if !ok {
		DebugPrintln("[CMD] unknown id " + utoa(uint32(id)))
		return ErrUnknownCommand
	}
	return cmd.Handler(args)
}

// Dictionary lists the handled commands, one "name format" per line.
func (r *CommandRegistry) Dictionary() string {
	dict := ""
	for _, c := range r.commands {
		if c.Handler == nil {
			continue
		}
		dict += c.Name
		if c.Format != "" {
			dict += " " + c.Format
		}
		dict += "\n"
	}
	return dict
}
