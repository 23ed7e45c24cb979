// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package interp

import (
	"fmt"

	"github.com/probechain/korkscript/korklog"
	"github.com/probechain/korkscript/namespace"
	"github.com/probechain/korkscript/types"
	"github.com/probechain/korkscript/value"
)

// popTruthy pops the top of the stack and applies the language's loose
// boolean coercion.
func (ip *Interp) popTruthy(fr *frame) bool {
	c := ip.popCell(fr)
	if c.IsValue {
		return toUint(c.Val) != 0 || toFloat(c.Val) != 0
	}
	return value.Truthy(c.Str)
}

func (ip *Interp) peekTruthy(fr *frame) bool {
	if v, ok := fr.stack.TopValue(); ok {
		return v.AsUint() != 0 || toFloat(v) != 0
	}
	return value.Truthy(fr.stack.Top())
}

// step executes one instruction starting at op (whose byte fr.ip already
// points past). done reports a RETURN* family opcode; ret is only
// meaningful when done is true. An error of dynamic type *thrown is a
// script-level throw in flight, handled by run's unwind logic, not a fatal
// condition.
func (ip *Interp) step(fr *frame, op Opcode) (ret string, done bool, err error) {
	switch op {

	// ---- Object construction ----
	case OpFuncDecl:
		idx := fr.readU32()
		if int(idx) < len(fr.cb.Functions) {
			fn := fr.cb.Functions[idx]
			ns := ip.Namespaces.FindOrCreate(fn.NS, fn.Pkg)
			ns.AddCommand(namespace.Entry{
				Name:      fn.Name,
				Kind:      namespace.Script,
				MaxArgs:   len(fn.ArgNames),
				ScriptRef: int(idx),
			})
			fr.ip = fn.EndIP
		}
	case OpCreateObject:
		err = ip.createObject(fr, fr.readStr())
	case OpAddObject:
		err = ip.addObject(fr)
	case OpEndObject:
		err = ip.endObject(fr)
	case OpFinishObject:
		err = ip.finishObject(fr)

	// ---- Control flow ----
	case OpJmpIfFNot, OpJmpIfNot:
		t := fr.readU32()
		if !ip.popTruthy(fr) {
			fr.ip = int(t)
		}
	case OpJmpIfF, OpJmpIf:
		t := fr.readU32()
		if ip.popTruthy(fr) {
			fr.ip = int(t)
		}
	case OpJmpIfNotNP:
		t := fr.readU32()
		if !ip.peekTruthy(fr) {
			fr.ip = int(t)
		}
	case OpJmpIfNP:
		t := fr.readU32()
		if ip.peekTruthy(fr) {
			fr.ip = int(t)
		}
	case OpJmp:
		fr.ip = int(fr.readU32())
	case OpReturn:
		return fr.stack.Top(), true, nil
	case OpReturnVoid:
		return "", true, nil
	case OpReturnFlt:
		c := ip.popCell(fr)
		return value.FormatFloat(toFloat(ip.numericValue(c, true))), true, nil
	case OpReturnUint:
		c := ip.popCell(fr)
		return value.FormatFloat(float64(toUint(ip.numericValue(c, false)))), true, nil

	// ---- Comparison & logic ----
	case OpCmpEQ:
		err = ip.binaryOp(fr, types.OpCmpEq, true)
	case OpCmpGR:
		err = ip.binaryOp(fr, types.OpCmpGr, true)
	case OpCmpGE:
		err = ip.binaryOp(fr, types.OpCmpGe, true)
	case OpCmpLT:
		err = ip.binaryOp(fr, types.OpCmpLt, true)
	case OpCmpLE:
		err = ip.binaryOp(fr, types.OpCmpLe, true)
	case OpCmpNE:
		err = ip.binaryOp(fr, types.OpCmpNe, true)
	case OpXor:
		err = ip.binaryOp(fr, types.OpXor, false)
	case OpMod:
		err = ip.binaryOp(fr, types.OpMod, false)
	case OpBitAnd:
		err = ip.binaryOp(fr, types.OpBitAnd, false)
	case OpBitOr:
		err = ip.binaryOp(fr, types.OpBitOr, false)
	case OpNot:
		err = ip.unaryOp(fr, types.OpNot, false)
	case OpNotF:
		err = ip.unaryOp(fr, types.OpNot, true)
	case OpOnesComplement:
		err = ip.unaryOp(fr, types.OpOnesComplement, false)
	case OpShr:
		err = ip.binaryOp(fr, types.OpShr, false)
	case OpShl:
		err = ip.binaryOp(fr, types.OpShl, false)
	case OpAnd:
		err = ip.binaryOp(fr, types.OpAnd, false)
	case OpOr:
		err = ip.binaryOp(fr, types.OpOr, false)

	// ---- Arithmetic ----
	case OpAdd:
		err = ip.binaryOp(fr, types.OpAdd, true)
	case OpSub:
		err = ip.binaryOp(fr, types.OpSub, true)
	case OpMul:
		err = ip.binaryOp(fr, types.OpMul, true)
	case OpDiv:
		err = ip.binaryOp(fr, types.OpDiv, true)
	case OpNeg:
		err = ip.unaryOp(fr, types.OpNeg, true)

	// ---- Current-variable register ----
	case OpSetCurVar:
		fr.curVarName, fr.curVarTyped = fr.readStr(), false
	case OpSetCurVarCreate:
		fr.curVarName, fr.curVarTyped = fr.readStr(), false
		if _, ok := fr.scope.get(fr.curVarName); !ok && fr.curVarName[0] != '$' {
			fr.scope.set(fr.curVarName, stringCell(""))
		}
	case OpSetCurVarArray:
		idx := ip.popCell(fr)
		fr.curVarName = fmt.Sprintf("%s[%s]", fr.curVarName, ip.formatCell(idx))
	case OpSetCurVarArrayCreate:
		idx := ip.popCell(fr)
		fr.curVarName = fmt.Sprintf("%s[%s]", fr.curVarName, ip.formatCell(idx))
		if _, ok := fr.scope.get(fr.curVarName); !ok {
			fr.scope.set(fr.curVarName, stringCell(""))
		}
	case OpLoadVarUint:
		err = fr.stack.Push(ip.numericValue(ip.getVar(fr, fr.curVarName), false))
	case OpLoadVarFlt:
		err = fr.stack.Push(ip.numericValue(ip.getVar(fr, fr.curVarName), true))
	case OpLoadVarStr:
		err = ip.pushCell(fr, stringCell(ip.formatCell(ip.getVar(fr, fr.curVarName))))
	case OpLoadVarVar:
		err = ip.pushCell(fr, ip.getVar(fr, fr.curVarName))
	case OpSaveVarUint:
		c := ip.popCell(fr)
		ip.setVar(fr, fr.curVarName, valueCell(ip.numericValue(c, false)))
	case OpSaveVarFlt:
		c := ip.popCell(fr)
		ip.setVar(fr, fr.curVarName, valueCell(ip.numericValue(c, true)))
	case OpSaveVarStr:
		c := ip.popCell(fr)
		ip.setVar(fr, fr.curVarName, stringCell(ip.formatCell(c)))
	case OpSaveVarVar:
		ip.setVar(fr, fr.curVarName, ip.popCell(fr))

	// ---- Current-object/current-field registers ----
	case OpSetCurObject, OpSetCurObjectNew, OpSetCurObjectInternal:
		if v, ok := fr.stack.TopValue(); ok {
			fr.stack.Rewind()
			fr.curObject, _ = ip.Objects.Find(v.AsObjectID())
		} else {
			fr.stack.Rewind()
			fr.curObject = nil
		}
	case OpSetCurField:
		fr.curField, fr.curFieldT = fr.readStr(), value.TypeVoid
	case OpSetCurFieldArray:
		idx := ip.popCell(fr)
		fr.curField = fmt.Sprintf("%s[%s]", fr.curField, ip.formatCell(idx))
	case OpSetCurFieldType:
		fr.curField = fr.readStr()
		fr.curFieldT = value.TypeID(fr.readU32())
	case OpSetCurFieldNone:
		fr.curField = ""

	case OpLoadFieldUint:
		err = fr.stack.Push(value.Unsigned(value.ParseUint(ip.readField(fr))))
	case OpLoadFieldFlt:
		err = fr.stack.Push(value.Number(value.ParseFloat(ip.readField(fr))))
	case OpLoadFieldStr, OpLoadFieldVar:
		err = ip.pushCell(fr, stringCell(ip.readField(fr)))
	case OpSaveFieldUint:
		c := ip.popCell(fr)
		ip.writeField(fr, value.FormatFloat(float64(toUint(ip.numericValue(c, false)))))
	case OpSaveFieldFlt:
		c := ip.popCell(fr)
		ip.writeField(fr, value.FormatFloat(toFloat(ip.numericValue(c, true))))
	case OpSaveFieldStr, OpSaveFieldVar:
		c := ip.popCell(fr)
		ip.writeField(fr, ip.formatCell(c))

	// ---- Accumulator type coercions ----
	case OpStrToUint:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Unsigned(value.ParseUint(ip.formatCell(c))))
	case OpStrToFlt:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Number(value.ParseFloat(ip.formatCell(c))))
	case OpStrToNone:
		ip.popCell(fr)
		err = fr.stack.Push(value.Void())
	case OpFltToUint:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Unsigned(uint64(int64(toFloat(ip.numericValue(c, true))))))
	case OpFltToStr:
		c := ip.popCell(fr)
		err = ip.pushCell(fr, stringCell(value.FormatFloat(toFloat(ip.numericValue(c, true)))))
	case OpFltToNone:
		ip.popCell(fr)
		err = fr.stack.Push(value.Void())
	case OpUintToFlt:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Number(float64(toUint(ip.numericValue(c, false)))))
	case OpUintToStr:
		c := ip.popCell(fr)
		err = ip.pushCell(fr, stringCell(value.FormatFloat(float64(toUint(ip.numericValue(c, false))))))
	case OpUintToNone:
		ip.popCell(fr)
		err = fr.stack.Push(value.Void())
	case OpCopyVarToNone:
		err = fr.stack.Push(value.Void())

	// ---- Immediates & literals ----
	case OpLoadImmedUint:
		err = fr.stack.Push(value.Unsigned(uint64(fr.readU32())))
	case OpLoadImmedFlt:
		err = fr.stack.Push(value.Number(value.ParseFloat(fr.readStr())))
	case OpTagToStr, OpLoadImmedStr, OpLoadImmedIdent:
		err = ip.pushCell(fr, stringCell(fr.readStr()))
	case OpDocblockStr:
		fr.readStr() // doc comments carry no runtime behavior

	// ---- Calls ----
	case OpCallFuncResolve, OpCallFunc:
		ns, name := fr.readStr(), fr.readStr()
		err = ip.dispatchCall(fr, ns, name)

	// ---- String-building accumulator ----
	case OpAdvanceStr:
		err = fr.stack.Advance()
	case OpAdvanceStrAppendChar:
		err = fr.stack.AdvanceChar(byte(fr.readU32()))
	case OpAdvanceStrComma:
		err = fr.stack.AdvanceChar(',')
	case OpAdvanceStrNUL:
		err = fr.stack.AdvanceChar(0)
	case OpRewindStr:
		err = fr.stack.Rewind()
	case OpTerminateRewindStr:
		var s string
		if s, err = fr.stack.RewindTerminate(); err == nil {
			err = ip.pushCell(fr, stringCell(s))
		}
	case OpCompareStr:
		var eq bool
		if eq, err = fr.stack.Compare(); err == nil {
			err = fr.stack.Push(value.Bool(eq))
		}

	// ---- Argument stack ----
	case OpPush:
		// the value is already the stack top from a prior ADVANCE/SET op.
	case OpPushUint:
		err = fr.stack.Push(value.Unsigned(uint64(fr.readU32())))
	case OpPushFlt:
		err = fr.stack.Push(value.Number(value.ParseFloat(fr.readStr())))
	case OpPushVar:
		err = ip.pushCell(fr, ip.getVar(fr, fr.curVarName))
	case OpPushFrame:
		err = fr.stack.PushFrame()

	case OpAssert:
		msg := fr.readStr()
		if !ip.popTruthy(fr) {
			ip.Log.Emit(korklog.Record{Level: korklog.Error, Kind: korklog.Assert, Msg: msg, Depth: fr.depth})
		}
	case OpBreak:
		// no debugger attached in this runtime; purely a marker opcode.

	// ---- foreach iteration ----
	case OpIterBegin:
		name, empty := fr.readStr(), fr.readU32()
		err = ip.iterBegin(fr, name, int(empty), false)
	case OpIterBeginStr:
		name, empty := fr.readStr(), fr.readU32()
		err = ip.iterBegin(fr, name, int(empty), true)
	case OpIter:
		target := fr.readU32()
		if len(fr.iterStack) == 0 {
			err = ErrObjectConstruction
			break
		}
		it := fr.iterStack[len(fr.iterStack)-1]
		if next, ok := it.next(); ok {
			ip.setVar(fr, it.varName, stringCell(next))
			fr.ip = int(target)
		} else {
			fr.iterStack = fr.iterStack[:len(fr.iterStack)-1]
		}
	case OpIterEnd:
		if len(fr.iterStack) > 0 {
			fr.iterStack = fr.iterStack[:len(fr.iterStack)-1]
		}

	// ---- Exceptions ----
	case OpPushTry, OpPushTryStack:
		handler := fr.readU32()
		fr.tryStack = append(fr.tryStack, tryFrame{
			handlerIP: int(handler),
			stackMark: fr.stack.FrameDepth(),
			iterMark:  len(fr.iterStack),
		})
	case OpPopTry:
		if len(fr.tryStack) > 0 {
			fr.tryStack = fr.tryStack[:len(fr.tryStack)-1]
		}
	case OpThrow:
		s := fr.stack.Top()
		fr.stack.Rewind()
		err = newThrown(s)
	case OpDupUint:
		if v, ok := fr.stack.TopValue(); ok {
			err = fr.stack.Push(v)
		} else {
			err = fr.stack.Push(value.Unsigned(value.ParseUint(fr.stack.Top())))
		}

	// ---- Typed variables ----
	case OpPushTyped, OpLoadVarTyped, OpLoadVarTypedRef:
		fr.readU32() // declared type id: diagnostic only, Cell already tracks its own.
		err = ip.pushCell(fr, ip.getVar(fr, fr.curVarName))
	case OpLoadFieldTyped:
		typeID := value.TypeID(fr.readU32())
		err = ip.loadFieldTyped(fr, typeID)
	case OpSaveVarTyped:
		typeID := value.TypeID(fr.readU32())
		c := ip.popCell(fr)
		ip.saveVarTyped(fr, typeID, c)
	case OpSaveFieldTyped:
		typeID := value.TypeID(fr.readU32())
		c := ip.popCell(fr)
		obj := fr.curObj()
		if obj != nil {
			obj.SetDynamicField(fr.curField, ip.formatCell(c), typeID, true)
		}
	case OpStrToTyped:
		typeID := value.TypeID(fr.readU32())
		s := fr.stack.Top()
		fr.stack.Rewind()
		err = ip.castToTyped(fr, ip.makeStringValue(s), typeID)
	case OpFltToTyped:
		typeID := value.TypeID(fr.readU32())
		c := ip.popCell(fr)
		err = ip.castToTyped(fr, ip.numericValue(c, true), typeID)
	case OpUintToTyped:
		typeID := value.TypeID(fr.readU32())
		c := ip.popCell(fr)
		err = ip.castToTyped(fr, ip.numericValue(c, false), typeID)
	case OpTypedToStr:
		c := ip.popCell(fr)
		err = ip.pushCell(fr, stringCell(ip.formatCell(c)))
	case OpTypedToFlt:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Number(ip.typedAsFloat(c)))
	case OpTypedToUint:
		c := ip.popCell(fr)
		err = fr.stack.Push(value.Unsigned(uint64(int64(ip.typedAsFloat(c)))))
	case OpTypedToNone:
		ip.popCell(fr)
		err = fr.stack.Push(value.Void())
	case OpTypedOp:
		err = ip.typedBinary(fr, types.Op(fr.readU32()), false)
	case OpTypedOpReverse:
		err = ip.typedBinary(fr, types.Op(fr.readU32()), true)
	case OpTypedUnaryOp:
		err = ip.typedUnary(fr, types.Op(fr.readU32()))

	case OpSetVarFromCopy:
		src := fr.readStr()
		ip.setVar(fr, fr.curVarName, ip.getVar(fr, src))
	case OpSetCurVarType:
		fr.curVarTyped = true
		fr.curVarType = value.TypeID(fr.readU32())

	case OpSetDynamicTypeFromVar:
		obj := fr.curObj()
		c := ip.getVar(fr, fr.curVarName)
		if obj != nil && c.IsValue {
			obj.SetDynamicField(fr.curField, ip.formatCell(c), c.Val.Type, true)
		}
	case OpSetDynamicTypeFromField:
		other := fr.readStr()
		obj := fr.curObj()
		if obj != nil {
			typeName := obj.GetFieldType(other, ip.typeName)
			if t, ok := ip.Types.LookupByName(typeName); ok {
				obj.SetDynamicField(fr.curField, obj.GetFieldValue(fr.curField), t.ID, true)
			}
		}
	case OpSetDynamicTypeFromID:
		typeID := value.TypeID(fr.readU32())
		obj := fr.curObj()
		if obj != nil {
			obj.SetDynamicField(fr.curField, obj.GetDynamicField(fr.curField), typeID, true)
		}
	case OpSetDynamicTypeToNull:
		obj := fr.curObj()
		if obj != nil {
			obj.SetDynamicField(fr.curField, obj.GetDynamicField(fr.curField), value.TypeVoid, false)
		}

	case OpSaveVarMultiple:
		err = ip.saveVarMultiple(fr, false)
	case OpSaveVarMultipleTyped:
		err = ip.saveVarMultiple(fr, true)
	case OpSaveFieldMultiple:
		err = ip.saveFieldMultiple(fr)

	case OpInvalid:
		err = ErrBadOpcode
	default:
		err = fmt.Errorf("%w: %s", ErrBadOpcode, op)
	}
	return "", false, err
}

func (ip *Interp) readField(fr *frame) string {
	obj := fr.curObj()
	if obj == nil {
		return ""
	}
	return ip.getField(obj, fr.curField)
}

func (ip *Interp) writeField(fr *frame, raw string) {
	obj := fr.curObj()
	if obj == nil {
		return
	}
	ip.setField(obj, fr.curField, raw)
}

// getField reads obj's field name, routing through a host-backed instance's
// GetField hook first (if the Bridge registered one for obj), then falling
// back to the VM's own static field table and dynamic field map.
func (ip *Interp) getField(obj *object.Object, name string) string {
	if ip.Bridge != nil {
		if inst, ok := ip.Bridge.InstanceFor(obj.ID); ok {
			if raw, ok := inst.GetDynamicField(name); ok {
				return raw
			}
		}
	}
	if raw := obj.GetFieldValue(name); raw != "" {
		return raw
	}
	return obj.GetDynamicField(name)
}

// setField mirrors getField for writes: a host-backed instance's SetField
// hook gets first refusal, then the static field table, then the dynamic
// field map.
func (ip *Interp) setField(obj *object.Object, name, raw string) {
	if ip.Bridge != nil {
		if inst, ok := ip.Bridge.InstanceFor(obj.ID); ok {
			if inst.SetDynamicField(name, raw) {
				return
			}
		}
	}
	if !obj.SetFieldValue(name, raw) {
		obj.SetDynamicField(name, raw, value.TypeVoid, false)
	}
}

func (ip *Interp) typeName(id value.TypeID) string {
	if t, ok := ip.Types.Lookup(id); ok {
		return t.Name
	}
	return ""
}

func (ip *Interp) loadFieldTyped(fr *frame, typeID value.TypeID) error {
	obj := fr.curObj()
	raw := ""
	if obj != nil {
		raw = ip.readField(fr)
	}
	return ip.castToTyped(fr, ip.makeStringValue(raw), typeID)
}

func (ip *Interp) castToTyped(fr *frame, v value.Value, typeID value.TypeID) error {
	t, ok := ip.Types.Lookup(typeID)
	if !ok {
		return fr.stack.Push(value.Void())
	}
	cast, ok := ip.Types.Cast(v, t)
	if !ok {
		return fr.stack.Push(value.Void())
	}
	return fr.stack.Push(cast)
}

func (ip *Interp) saveVarTyped(fr *frame, typeID value.TypeID, c Cell) {
	t, ok := ip.Types.Lookup(typeID)
	if !ok || !c.IsValue {
		ip.setVar(fr, fr.curVarName, c)
		return
	}
	cast, ok := ip.Types.Cast(c.Val, t)
	if !ok {
		ip.setVar(fr, fr.curVarName, c)
		return
	}
	ip.setVar(fr, fr.curVarName, typedCell(cast, typeID))
}

func (ip *Interp) typedAsFloat(c Cell) float64 {
	if !c.IsValue {
		return value.ParseFloat(c.Str)
	}
	numT, _ := ip.Types.Lookup(value.TypeNumber)
	if cast, ok := ip.Types.Cast(c.Val, numT); ok {
		return cast.AsFloat()
	}
	return 0
}

func (ip *Interp) typedBinary(fr *frame, op types.Op, reverse bool) error {
	rhs := ip.popCell(fr)
	lhs := ip.popCell(fr)
	if reverse {
		lhs, rhs = rhs, lhs
	}
	if !lhs.IsValue {
		return fr.stack.Push(value.Void())
	}
	rv := rhs.Val
	if rhs.IsValue && rhs.Val.Type != lhs.Val.Type {
		if t, ok := ip.Types.Lookup(lhs.Val.Type); ok {
			if cast, ok := ip.Types.Cast(rhs.Val, t); ok {
				rv = cast
			}
		}
	} else if !rhs.IsValue {
		rv = ip.makeStringValue(rhs.Str)
	}
	return fr.stack.Push(ip.Types.PerformOp(op, lhs.Val, rv))
}

func (ip *Interp) typedUnary(fr *frame, op types.Op) error {
	c := ip.popCell(fr)
	if !c.IsValue {
		return fr.stack.Push(value.Void())
	}
	zero := value.Unsigned(0)
	if t, ok := ip.Types.Lookup(c.Val.Type); ok {
		if z, ok := ip.Types.Cast(zero, t); ok {
			zero = z
		}
	}
	return fr.stack.Push(ip.Types.PerformOp(op, c.Val, zero))
}

func (ip *Interp) saveVarMultiple(fr *frame, typed bool) error {
	count := int(fr.readU32())
	names := make([]string, count)
	types_ := make([]value.TypeID, count)
	for i := 0; i < count; i++ {
		names[i] = fr.readStr()
		if typed {
			types_[i] = value.TypeID(fr.readU32())
		}
	}
	cells := make([]Cell, count)
	for i := count - 1; i >= 0; i-- {
		cells[i] = ip.popCell(fr)
	}
	for i := 0; i < count; i++ {
		if typed {
			ip.saveVarTypedNamed(fr, names[i], types_[i], cells[i])
		} else {
			ip.setVar(fr, names[i], cells[i])
		}
	}
	return nil
}

func (ip *Interp) saveVarTypedNamed(fr *frame, name string, typeID value.TypeID, c Cell) {
	t, ok := ip.Types.Lookup(typeID)
	if !ok || !c.IsValue {
		ip.setVar(fr, name, c)
		return
	}
	if cast, ok := ip.Types.Cast(c.Val, t); ok {
		ip.setVar(fr, name, typedCell(cast, typeID))
		return
	}
	ip.setVar(fr, name, c)
}

func (ip *Interp) saveFieldMultiple(fr *frame) error {
	count := int(fr.readU32())
	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = fr.readStr()
	}
	vals := make([]string, count)
	for i := count - 1; i >= 0; i-- {
		vals[i] = ip.formatCell(ip.popCell(fr))
	}
	obj := fr.curObj()
	if obj == nil {
		return nil
	}
	for i := 0; i < count; i++ {
		if !obj.SetFieldValue(names[i], vals[i]) {
			obj.SetDynamicField(names[i], vals[i], value.TypeVoid, false)
		}
	}
	return nil
}
