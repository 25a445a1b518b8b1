package cli

import (
	"flag"
	"fmt"
	"strconv"
	"text/template"

	"github.com/shuldan/queues/pkg/contracts"
)

var helpTemplate = template.Must(template.New("help").Parse(`Usage: {{ .Program }} <command> [options] [arguments]

{{ range $group, $commands := .Groups }}{{ $group }}:{{ range $commands }}
  {{ .PaddedName }}  {{ .Description }}{{ end }}

{{ end }}`))

type HelpCommand struct {
	registry contracts.CliRegistry
	program  string
	command  string
}

func NewHelpCommand(registry contracts.CliRegistry) *HelpCommand {
	return &HelpCommand{registry: registry, program: "command"}
}

// WithProgram sets the program name shown in the usage line.
func (h *HelpCommand) WithProgram(name string) *HelpCommand {
	h.program = name
	return h
}

func (h *HelpCommand) Name() string {
	return "help"
}

func (h *HelpCommand) Description() string {
	return "Display help for commands"
}

func (h *HelpCommand) Group() string {
	return contracts.SystemCliGroup
}

func (h *HelpCommand) Configure(flags *flag.FlagSet) {
	flags.StringVar(&h.command, "command", "", "Show help for specific command")
}

func (h *HelpCommand) Validate(contracts.CliContext) error {
	return nil
}

func (h *HelpCommand) Execute(ctx contracts.CliContext) error {
	name := h.command
	if name == "" {
		if args := ctx.Args(); len(args) > 0 {
			name = args[0]
		}
	}
	if name != "" {
		return h.showCommandHelp(ctx, name)
	}
	return h.showGeneralHelp(ctx)
}

type printableCommand struct {
	PaddedName  string
	Description string
}

func (h *HelpCommand) showGeneralHelp(ctx contracts.CliContext) error {
	groups := h.registry.Groups()
	printable := make(map[string][]printableCommand, len(groups))

	for group, commands := range groups {
		longest := 0
		for _, cmd := range commands {
			longest = max(longest, len(cmd.Name()))
		}

		format := "%-" + strconv.Itoa(longest) + "s"
		rows := make([]printableCommand, 0, len(commands))
		for _, cmd := range commands {
			rows = append(rows, printableCommand{
				PaddedName:  fmt.Sprintf(format, cmd.Name()),
				Description: cmd.Description(),
			})
		}
		printable[group] = rows
	}

	return helpTemplate.Execute(ctx.Output(), struct {
		Program string
		Groups  map[string][]printableCommand
	}{h.program, printable})
}

func (h *HelpCommand) showCommandHelp(ctx contracts.CliContext, name string) error {
	command, exists := h.registry.Get(name)
	if !exists {
		return ErrHelpCommandNotFound.WithDetail("command", name)
	}

	output := ctx.Output()
	if _, err := fmt.Fprintf(output, "%s - %s\n\nOptions:\n", command.Name(), command.Description()); err != nil {
		return err
	}

	flags := flag.NewFlagSet(command.Name(), flag.ContinueOnError)
	flags.SetOutput(output)
	command.Configure(flags)
	flags.PrintDefaults()
	return nil
}
