package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	flag "github.com/spf13/pflag"
)

func Test_Command_Name_Returns_The_First_Word_Of_Usage(t *testing.T) {
	t.Parallel()

	c := &Command{Usage: "run [flags]"}
	assert.Equal(t, "run", c.Name())
}

func Test_Command_Run_Executes_Exec_And_Returns_Zero_On_Success(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	ran := false
	c := &Command{
		Flags: flag.NewFlagSet("noop", flag.ContinueOnError),
		Usage: "noop",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			ran = true
			return nil
		},
	}

	code := c.Run(context.Background(), NewIO(&out, &errOut), nil)

	assert.Equal(t, 0, code)
	assert.True(t, ran)
}

func Test_Command_Run_Prints_Error_And_Returns_One_On_Exec_Failure(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	c := &Command{
		Flags: flag.NewFlagSet("fail", flag.ContinueOnError),
		Usage: "fail",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			return assert.AnError
		},
	}

	code := c.Run(context.Background(), NewIO(&out, &errOut), nil)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), assert.AnError.Error())
}

func Test_Command_Run_Prints_Help_On_Help_Flag_Without_Running_Exec(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	ran := false
	c := &Command{
		Flags: flag.NewFlagSet("thing", flag.ContinueOnError),
		Usage: "thing [flags]",
		Short: "does a thing",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			ran = true
			return nil
		},
	}

	code := c.Run(context.Background(), NewIO(&out, &errOut), []string{"--help"})

	assert.Equal(t, 0, code)
	assert.False(t, ran)
	assert.Contains(t, out.String(), "Usage: oplogbench thing [flags]")
}

func Test_Command_Run_Rejects_An_Unknown_Flag(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer

	c := &Command{
		Flags: flag.NewFlagSet("thing", flag.ContinueOnError),
		Usage: "thing",
		Exec: func(_ context.Context, _ *IO, _ []string) error {
			return nil
		},
	}

	code := c.Run(context.Background(), NewIO(&out, &errOut), []string{"--does-not-exist"})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "error:")
}

func Test_Command_HelpLine_Includes_Usage_And_Short(t *testing.T) {
	t.Parallel()

	c := &Command{Usage: "run [flags]", Short: "runs things"}

	assert.Contains(t, c.HelpLine(), "run [flags]")
	assert.Contains(t, c.HelpLine(), "runs things")
}
