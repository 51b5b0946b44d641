// Package command provides the console command registry, parser, and
// built-in command definitions.
package command

// Categories for organizing commands.
const (
	CategoryDamage  = "damage"
	CategorySession = "session"
	CategorySystem  = "system"
)

// Handler identifiers dispatched by the console.
const (
	HandlerDamage   = "damage"
	HandlerSessions = "sessions"
	HandlerEdit     = "edit"
	HandlerSoak     = "soak"
	HandlerTake     = "take"
	HandlerShaken   = "shaken"
	HandlerDismiss  = "dismiss"
	HandlerClose    = "close"
	HandlerChoose   = "choose"
	HandlerWho      = "who"
	HandlerInspect  = "inspect"
	HandlerRules    = "rules"
	HandlerHelp     = "help"
	HandlerQuit     = "quit"
)

// Command defines a console command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown by help.
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command.
	Category string
	// Handler identifies the console handler.
	Handler string
	// MinArgs is the minimum number of arguments accepted.
	MinArgs int
}

// BuiltinCommands returns all built-in console commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "damage", Aliases: []string{"dmg", "hit"}, Usage: "<damage> <ap> <target>...", Help: "Route a damage roll to its targets", Category: CategoryDamage, Handler: HandlerDamage, MinArgs: 3},
		{Name: "choose", Usage: "<choice> <option>", Help: "Pick which owner resolves a pending choice", Category: CategoryDamage, Handler: HandlerChoose, MinArgs: 2},

		{Name: "sessions", Aliases: []string{"ls"}, Help: "List open negotiations", Category: CategorySession, Handler: HandlerSessions},
		{Name: "edit", Usage: "<session> <damage> <ap>", Help: "Change the damage and AP of a negotiation", Category: CategorySession, Handler: HandlerEdit, MinArgs: 3},
		{Name: "soak", Usage: "<session> [free|gm|own]", Help: "Roll to soak wounds", Category: CategorySession, Handler: HandlerSoak, MinArgs: 1},
		{Name: "take", Usage: "<session>", Help: "Take the wounds", Category: CategorySession, Handler: HandlerTake, MinArgs: 1},
		{Name: "shaken", Usage: "<session>", Help: "Apply the shaken result", Category: CategorySession, Handler: HandlerShaken, MinArgs: 1},
		{Name: "dismiss", Usage: "<session>", Help: "Resolve a hit that did no damage", Category: CategorySession, Handler: HandlerDismiss, MinArgs: 1},
		{Name: "close", Usage: "<session>", Help: "Close a negotiation without resolving it", Category: CategorySession, Handler: HandlerClose, MinArgs: 1},

		{Name: "inspect", Aliases: []string{"i"}, Usage: "<target>", Help: "Show a target's wounds and effects", Category: CategorySystem, Handler: HandlerInspect, MinArgs: 1},
		{Name: "who", Help: "List participants", Category: CategorySystem, Handler: HandlerWho},
		{Name: "rules", Help: "Show the active setting rules", Category: CategorySystem, Handler: HandlerRules},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Leave the session", Category: CategorySystem, Handler: HandlerQuit},
	}
}
