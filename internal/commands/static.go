package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/serroba/guildbot/internal/platform"
	"gopkg.in/yaml.v3"
)

// DefaultGitHubReply is the reply of the built-in github command.
const DefaultGitHubReply = "Linkki github organisaatioon:\n<https://koira.testausserveri.fi/github/join>"

// StaticCommand replies with fixed text.
type StaticCommand struct {
	Name  string `yaml:"name"`
	Reply string `yaml:"reply"`
}

// File is the layout of the commands file.
type File struct {
	Commands []StaticCommand `yaml:"commands"`
}

// DefaultStatic returns the built-in static commands.
func DefaultStatic() []StaticCommand {
	return []StaticCommand{
		{Name: "github", Reply: DefaultGitHubReply},
	}
}

// ParseStatic parses static command definitions from YAML.
func ParseStatic(data []byte) ([]StaticCommand, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}

	for i, c := range f.Commands {
		if normalize(c.Name) == "" {
			return nil, fmt.Errorf("parse commands: entry %d has no name", i)
		}

		if c.Reply == "" {
			return nil, fmt.Errorf("parse commands: %q has no reply", c.Name)
		}
	}

	return f.Commands, nil
}

// LoadStatic reads static command definitions from a YAML file.
func LoadStatic(path string) ([]StaticCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseStatic(data)
}

// StaticReply returns a handler that answers with text in the invoking channel.
func StaticReply(client platform.Client, text string) Handler {
	return func(ctx context.Context, cmd platform.CommandInvoked) error {
		return client.SendReply(ctx, cmd.Channel, text)
	}
}

// RegisterStatic registers every static command on r.
func RegisterStatic(r *Registry, client platform.Client, cmds []StaticCommand) {
	for _, c := range cmds {
		r.Register(c.Name, StaticReply(client, c.Reply))
	}
}
