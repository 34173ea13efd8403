package client_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/daniacca/overreaction/internal/kinetics"
	"github.com/daniacca/overreaction/pkg/client"
)

func ExampleReactionBuilder() {
	// Red + Blue -> x1 at rate 3, over the five default species.
	fields, err := client.NewReaction(5).
		Consume(0, 1).
		Consume(1, 1).
		Produce(2, 1).
		Rate(3).
		Fields()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(strings.Join(fields, ","))
	// Output: 3,5,1,1,0,0,0,0,0,1,0,0
}

func ExampleModifierBuilder() {
	m, err := client.NewModifier(kinetics.ModifierReactionRate).Times(2, 1).For(5).Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m)
	// Output: reaction_rate x2/1
}

func ExampleClient_Subscribe() {
	c := client.New("http://localhost:8080")
	replica := kinetics.NewReplica(5)

	// Blocks until the context is cancelled or the server goes away:
	// err := c.Subscribe(context.Background(), "match-1", replica, func(s kinetics.Snapshot) {
	// 	fmt.Println(s.Species)
	// })
	_ = context.Background()
	_ = c
	_ = replica
}
