package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/tradesim/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the sandbox documentation" }
func (*topicCmd) Usage() string {
	return `topic [-l] [<topic>...]

  Prints the introduction, or the given topics ('*' for all of them).
  With -l, lists the topics.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "l", false, "list the topics")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	md, err := topicDoc(c.list, f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

// topicDoc returns the markdown to print for the topic command. Without
// topics it is the readme followed by the topic list.
func topicDoc(list bool, topics []string) (string, error) {
	if list {
		return docs.Index()
	}
	if len(topics) == 0 {
		readme, err := docs.GetTopic("readme")
		if err != nil {
			return "", err
		}
		index, err := docs.Index()
		if err != nil {
			return "", err
		}
		return readme + "\n" + index, nil
	}

	all, err := docs.GetAllTopics()
	if err != nil {
		return "", err
	}
	for _, topic := range topics {
		if topic != "*" && topic != "readme" && !slices.Contains(all, topic) {
			return "", fmt.Errorf("no topic %q, 'tradesim topic -l' lists them", topic)
		}
	}
	return docs.GetTopics(topics...)
}
