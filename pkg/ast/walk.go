package ast

// Walk traverses the tree depth-first and calls fn for each node: the script,
// blocks, commands and the tests inside command arguments.
// If fn returns false, the children of that node are skipped.
func Walk(node Node, fn func(node Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	walkNode(node, fn)
}

func walkNode(node Node, fn func(node Node) bool) {
	switch n := node.(type) {
	case *Script:
		if n == nil {
			return
		}
		Walk(n.body, fn)

	case *Block:
		if n == nil {
			return
		}
		for _, cmd := range n.commands {
			Walk(cmd, fn)
		}

	case *Command:
		if n == nil {
			return
		}
		walkArgs(n.args, fn)
		if n.block != nil {
			Walk(n.block, fn)
		}

	case *Test:
		if n == nil {
			return
		}
		walkArgs(n.Args, fn)
	}
}

func walkArgs(args []Argument, fn func(node Node) bool) {
	for _, a := range args {
		switch v := a.(type) {
		case *TestArg:
			if v.Test != nil {
				Walk(v.Test, fn)
			}
		case *TestListArg:
			for _, t := range v.Tests {
				if t != nil {
					Walk(t, fn)
				}
			}
		}
	}
}

// Commands returns every command in the script in source order, nested
// commands following their owner.
func Commands(s *Script) []*Command {
	var out []*Command
	Walk(s, func(n Node) bool {
		if cmd, ok := n.(*Command); ok {
			out = append(out, cmd)
		}
		return true
	})
	return out
}
