package hir

// apply.go is the substitution/variable-renaming traversal shared by the
// variable simplifier, the inliner, and the finalizer: every pass that
// needs to rewrite the operands of an instruction without hand-rolling a
// switch over InstrKind goes through MapVars/MapBlocks.

// MapVars returns a copy of i with every variable operand replaced by
// f(operand). Results (the variable an instruction writes) are rewritten
// too, since the variable simplifier collapses a declaration's identity,
// not just its uses.
func MapVars(i Instr, f func(Variable) Variable) Instr {
	switch i.Kind {
	case IDeclareVar:
		i.DeclareVar.Var = f(i.DeclareVar.Var)
	case IAssign:
		i.Assign.Dest = f(i.Assign.Dest)
		i.Assign.Src = f(i.Assign.Src)
	case IFunctionCall, IMethodCall, IDynamicFunctionCall:
		i.FunctionCall.Dest = f(i.FunctionCall.Dest)
		args := make([]Variable, len(i.FunctionCall.Args))
		for j, a := range i.FunctionCall.Args {
			args[j] = f(a)
		}
		i.FunctionCall.Args = args
	case IFieldRef:
		i.FieldRef.Dest = f(i.FieldRef.Dest)
		i.FieldRef.Recv = f(i.FieldRef.Recv)
	case IFieldAssign:
		i.FieldAssign.Dest = f(i.FieldAssign.Dest)
		i.FieldAssign.Rhs = f(i.FieldAssign.Rhs)
	case IAddressOfField:
		i.AddressOfField.Dest = f(i.AddressOfField.Dest)
		i.AddressOfField.Recv = f(i.AddressOfField.Recv)
	case IPtrOf:
		i.PtrOf.Dest = f(i.PtrOf.Dest)
		i.PtrOf.Src = f(i.PtrOf.Src)
	case IRef:
		i.Ref.Dest = f(i.Ref.Dest)
		i.Ref.Src = f(i.Ref.Src)
	case ITuple:
		i.Tuple.Dest = f(i.Tuple.Dest)
		args := make([]Variable, len(i.Tuple.Args))
		for j, a := range i.Tuple.Args {
			args[j] = f(a)
		}
		i.Tuple.Args = args
	case ITransform:
		i.Transform.Dest = f(i.Transform.Dest)
		i.Transform.Src = f(i.Transform.Src)
	case IStringLiteral, IIntegerLiteral, ICharLiteral:
		i.Literal.Dest = f(i.Literal.Dest)
	case IReturn:
		i.Return.Arg = f(i.Return.Arg)
	case IEnumSwitch:
		i.EnumSwitch.Scrutinee = f(i.EnumSwitch.Scrutinee)
	case IIntegerSwitch:
		i.IntegerSwitch.Scrutinee = f(i.IntegerSwitch.Scrutinee)
	case IDrop:
		i.Drop.Result = f(i.Drop.Result)
		i.Drop.Var = f(i.Drop.Var)
	}
	return i
}

// UseVars calls visit for every variable i reads (not including the
// variable it writes), the read-only counterpart to MapVars used by the
// unused-assignment eliminator's liveness walk.
func UseVars(i Instr, visit func(Variable)) {
	switch i.Kind {
	case IAssign:
		visit(i.Assign.Src)
	case IFunctionCall, IMethodCall, IDynamicFunctionCall:
		for _, a := range i.FunctionCall.Args {
			visit(a)
		}
	case IFieldRef:
		visit(i.FieldRef.Recv)
	case IFieldAssign:
		visit(i.FieldAssign.Rhs)
		visit(i.FieldAssign.Dest)
	case IAddressOfField:
		visit(i.AddressOfField.Recv)
	case IPtrOf:
		visit(i.PtrOf.Src)
	case IRef:
		visit(i.Ref.Src)
	case ITuple:
		for _, a := range i.Tuple.Args {
			visit(a)
		}
	case ITransform:
		visit(i.Transform.Src)
	case IReturn:
		visit(i.Return.Arg)
	case IEnumSwitch:
		visit(i.EnumSwitch.Scrutinee)
	case IIntegerSwitch:
		visit(i.IntegerSwitch.Scrutinee)
	case IDrop:
		visit(i.Drop.Var)
	}
}

// MapBlocks returns a copy of i with every jump target rewritten by f. Used
// by the inliner when splicing a cloned callee (its internal switch/jump
// targets are remapped to the fresh block ids cloning allocated).
func MapBlocks(i Instr, f func(BlockID) BlockID) Instr {
	switch i.Kind {
	case IJump:
		i.Jump.Target = f(i.Jump.Target)
	case IEnumSwitch:
		cases := make([]SwitchCase, len(i.EnumSwitch.Cases))
		for j, c := range i.EnumSwitch.Cases {
			c.Target = f(c.Target)
			cases[j] = c
		}
		i.EnumSwitch.Cases = cases
		if i.EnumSwitch.Default.IsValid() {
			i.EnumSwitch.Default = f(i.EnumSwitch.Default)
		}
	case IIntegerSwitch:
		cases := make([]SwitchCase, len(i.IntegerSwitch.Cases))
		for j, c := range i.IntegerSwitch.Cases {
			c.Target = f(c.Target)
			cases[j] = c
		}
		i.IntegerSwitch.Cases = cases
		if i.IntegerSwitch.Default.IsValid() {
			i.IntegerSwitch.Default = f(i.IntegerSwitch.Default)
		}
	}
	return i
}

// SetResult returns a copy of i with its result variable replaced by v. It
// panics if i has no result (callers are expected to check Result() first).
func SetResult(i Instr, v Variable) Instr {
	switch i.Kind {
	case IDeclareVar:
		i.DeclareVar.Var = v
	case IAssign:
		i.Assign.Dest = v
	case IFunctionCall, IMethodCall, IDynamicFunctionCall:
		i.FunctionCall.Dest = v
	case IFieldRef:
		i.FieldRef.Dest = v
	case IFieldAssign:
		i.FieldAssign.Dest = v
	case IAddressOfField:
		i.AddressOfField.Dest = v
	case IPtrOf:
		i.PtrOf.Dest = v
	case IRef:
		i.Ref.Dest = v
	case ITuple:
		i.Tuple.Dest = v
	case ITransform:
		i.Transform.Dest = v
	case IStringLiteral, IIntegerLiteral, ICharLiteral:
		i.Literal.Dest = v
	case IDrop:
		i.Drop.Result = v
	default:
		panic("hir: SetResult on instruction with no result: " + i.Kind.String())
	}
	return i
}
