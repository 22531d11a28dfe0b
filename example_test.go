package unattended_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cboone/unattended"
)

// printSender stands in for a Session so the example runs without tmux.
type printSender struct{}

func (printSender) Send(ctx context.Context, text string) error {
	fmt.Printf("send %q\n", text)
	return nil
}

func ExampleEngine_Process() {
	table := unattended.Table{
		{Match: "Do you agree to the terms", Response: "Y"},
		{Match: "Please enter your node ID:", Response: "N123"},
	}
	engine, err := unattended.NewEngine(table, printSender{})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, chunk := range []string{"Welcome\nDo you agree to the te", "rms (Y/n)? ", "\nPlease enter your node ID: "} {
		done, err := engine.Process(ctx, chunk)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(engine.State(), done)
	}
	// Output:
	// streaming false
	// send "Y"
	// streaming false
	// send "N123"
	// complete true
}

func ExampleSession() {
	_ = func() error {
		ctx := context.Background()
		sess, err := unattended.NewSession(ctx, "nexus", "/tmp/nexus_screen.log")
		if err != nil {
			return err
		}
		if err := sess.Create(ctx); err != nil {
			return err
		}
		if err := sess.EnableLogging(ctx); err != nil {
			return err
		}
		tr, err := unattended.OpenTranscript(sess.LogPath())
		if err != nil {
			return err
		}
		defer tr.Close()

		engine, err := unattended.NewEngine(unattended.Table{
			{Match: "Please enter your node ID:", Response: "N123"},
		}, sess, unattended.WithTimeout(10*time.Minute))
		if err != nil {
			return err
		}
		if err := sess.Send(ctx, "curl https://cli.nexus.xyz/ | sh"); err != nil {
			return err
		}
		return engine.Watch(ctx, tr)
	}
}

func ExampleLoadConfig() {
	_ = func() error {
		cfg, err := unattended.LoadConfig("unattended.yaml")
		if err != nil {
			return err
		}
		cfg.Vars = map[string]string{unattended.NodeIDVar: "N123"}
		if err := cfg.Validate(); err != nil {
			return err
		}
		table, err := cfg.Table()
		if err != nil {
			return err
		}
		fmt.Println(len(table), "rules")
		return nil
	}
}
