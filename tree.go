package fdt

import (
	"github.com/scigolib/fdt/internal/core"
	"github.com/scigolib/fdt/internal/utils"
)

// buildTree folds a token stream into a Node tree. It maintains a
// stack of in-progress nodes: BeginNode pushes, Prop appends to the
// top, EndNode pops and appends the completed node to the new top's
// children.
func buildTree(structure, strings []byte) (*Node, error) {
	dec := core.NewDecoder(structure, strings)

	stack := []*Node{{}} // sentinel root frame holding the eventual root as its sole child

	for {
		tok, err := dec.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case core.TokenBeginNode:
			stack = append(stack, &Node{Name: tok.Name})

		case core.TokenProp:
			if len(stack) == 1 {
				return nil, utils.Wrap(utils.PropertyBeforeNode, "prop "+tok.Name, nil)
			}
			top := stack[len(stack)-1]
			top.Properties = append(top.Properties, Property{
				Name:  tok.Name,
				Value: Value{Kind: classify(tok.Value), raw: tok.Value},
			})

		case core.TokenEndNode:
			if len(stack) == 1 {
				return nil, utils.Wrap(utils.UnbalancedTree, "EndNode with no open node", nil)
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, *done)

		case core.TokenNop:
			// skipped

		case core.TokenEnd:
			sentinel := stack[0]
			if len(stack) != 1 || len(sentinel.Children) != 1 {
				return nil, utils.Wrap(utils.UnbalancedTree, "End reached with nodes still open", nil)
			}
			root := &sentinel.Children[0]
			return root, nil
		}
	}
}
