// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/lassandro/gocpu16/pkg/encoding"
	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".ORIG") {
		return DIRECTIVE_ORIG
	} else if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseLiteral(token *Token, min, max int32) (int32, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if result < min || result > max {
		return 0, &OversizedLiteralError{token.Position, min, max, result}
	}

	return result, nil
}

// tokenize splits one source line. Labels keep their trailing colon out of
// the token value; everything after a ';' is dropped.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int
	var tokenType TokenType = TOKEN_NONE

	var comma *Cursor

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, Token{
				Type: tokenType,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			})
			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()
			continue

		// Comments
		case char == ';':
			flush()

			if comma != nil {
				errs = append(errs, &UnexpectedCharacterError{*comma, ','})
			}

			return

		// Operand Separator
		case char == ',':
			flush()

			if comma != nil || len(tokens) < 2 {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

			position := cursor
			comma = &position
			continue

		// Label Declaration (i.e. loop:)
		case char == ':':
			if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

			tokenType = TOKEN_LABEL
			flush()
			continue

		// Assembler Directives
		case char == '.':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

			tokenType = TOKEN_DIRECTIVE

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType != TOKEN_NONE {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

			tokenType = TOKEN_LITERAL

		// Numeric Sign
		case char == '-':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else if tokenType != TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

		// Hex Literal (i.e. x2A, no leading zero)
		case char == 'x' || char == 'X':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Numeric Literal
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Underscore'd Identifier
		case char == '_':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType == TOKEN_LITERAL {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
				continue
			}

		case char > unicode.MaxASCII:
			errs = append(errs, &OversizedCharacterError{cursor})
			continue

		// Identifier
		case unicode.IsLetter(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			errs = append(errs, &UnexpectedCharacterError{cursor, char})
			continue
		}

		if builder.Len() == 0 {
			comma = nil
		}

		builder.WriteRune(char)
	}

	flush()

	if comma != nil {
		errs = append(errs, &UnexpectedCharacterError{*comma, ','})
	}

	return
}

type labelRef struct {
	Label    string
	Addr     uint16
	Position Cursor
}

type assembly struct {
	result   []uint16
	errs     []error
	labels   map[string]uint16
	refs     []labelRef
	program  int
	size     int
	symtable *SymTable
}

func (asm *assembly) fail(err error) {
	asm.errs = append(asm.errs, err)
}

// emit stores word at the location counter. It reports false once ROM is
// full.
func (asm *assembly) emit(word uint16, cursor Cursor) bool {
	if asm.program >= machine.ROM_SIZE {
		asm.fail(&OversizedBinaryError{machine.ROM_SIZE})
		return false
	}

	asm.result[asm.program] = word

	if asm.symtable != nil {
		asm.symtable.Symbols[uint16(asm.program)] = cursor.LineByte
	}

	asm.program++

	if asm.program > asm.size {
		asm.size = asm.program
	}

	return true
}

func (asm *assembly) register(token *Token) isa.Reg {
	if token.Type != TOKEN_IDENT {
		asm.fail(&InvalidOperandError{
			token.Position,
			[]TokenType{TOKEN_IDENT},
			token.Type,
		})

		return 0
	}

	reg, ok := isa.ParseReg(token.Value)

	if !ok {
		asm.fail(&InvalidRegisterError{token.Position, token.Value})
	}

	return reg
}

// operand resolves a literal in [min, max] or a label reference. Labels are
// patched in once every line has been read.
func (asm *assembly) operand(token *Token, min, max int32) uint16 {
	switch token.Type {
	case TOKEN_LITERAL:
		literal, err := parseLiteral(token, min, max)

		if err != nil {
			asm.fail(err)
		}

		return uint16(literal)

	case TOKEN_IDENT:
		asm.refs = append(
			asm.refs,
			labelRef{token.Value, uint16(asm.program), token.Position},
		)

		return 0
	}

	asm.fail(&InvalidOperandError{
		token.Position,
		[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
		token.Type,
	})

	return 0
}

func (asm *assembly) instruction(op isa.Opcode, keyword *Token, operands []Token, cursor Cursor) bool {
	format := op.Format()

	if count := len(operands); count != format.Operands() {
		asm.fail(&InvalidNumArgumentsError{
			keyword.Position, format.Operands(), count,
		})

		return true
	}

	inst := isa.Instruction{Op: op}

	switch format {
	// MOV ADD SUB AND OR CMP  regA, regB
	case isa.FORMAT_RR:
		inst.A = asm.register(&operands[0])
		inst.B = asm.register(&operands[1])

	// SL SR SRA  regA
	case isa.FORMAT_R:
		inst.A = asm.register(&operands[0])

	// LDL LDH  regA, imm8
	case isa.FORMAT_RI:
		inst.A = asm.register(&operands[0])
		inst.Imm = uint8(asm.operand(&operands[1], IMM_MIN, IMM_MAX))

	// JE JMP  addr8
	case isa.FORMAT_A:
		inst.Imm = uint8(asm.operand(&operands[0], ADDR_MIN, ADDR_MAX))

	// LD ST  regA, addr8
	case isa.FORMAT_RA:
		inst.A = asm.register(&operands[0])
		inst.Imm = uint8(asm.operand(&operands[1], ADDR_MIN, ADDR_MAX))
	}

	return asm.emit(isa.Encode(inst), cursor)
}

// directive assembles one directive line. It reports false when assembly
// should stop.
func (asm *assembly) directive(directive DirectiveType, keyword *Token, operands []Token, cursor Cursor) bool {
	want := 1
	if directive == DIRECTIVE_END {
		want = 0
	}

	if count := len(operands); count != want {
		asm.fail(&InvalidNumArgumentsError{keyword.Position, want, count})
		return directive != DIRECTIVE_END
	}

	switch directive {
	// .END
	case DIRECTIVE_END:
		return false

	// .FILL # | .FILL label
	case DIRECTIVE_FILL:
		return asm.emit(asm.operand(&operands[0], WORD_MIN, WORD_MAX), cursor)

	// .BLKW #
	case DIRECTIVE_BLKW:
		if operands[0].Type != TOKEN_LITERAL {
			asm.fail(&InvalidOperandError{
				operands[0].Position,
				[]TokenType{TOKEN_LITERAL},
				operands[0].Type,
			})

			return true
		}

		count, err := parseLiteral(&operands[0], 1, int32(machine.ROM_SIZE))

		if err != nil {
			asm.fail(err)
			return true
		}

		for i := int32(0); i < count; i++ {
			if !asm.emit(0, cursor) {
				return false
			}
		}

	// .ORIG #
	case DIRECTIVE_ORIG:
		if operands[0].Type != TOKEN_LITERAL {
			asm.fail(&InvalidOperandError{
				operands[0].Position,
				[]TokenType{TOKEN_LITERAL},
				operands[0].Type,
			})

			return true
		}

		addr, err := parseLiteral(&operands[0], ADDR_MIN, ADDR_MAX)

		if err != nil {
			asm.fail(err)
			return true
		}

		asm.program = int(addr)
	}

	return true
}

// Assemble translates source into a ROM image. The image is as long as the
// highest address written; lower cells that were skipped are zero. Every
// error found is returned, each carrying its source position where one
// exists. Passing a non-nil symtable records where each word and label
// came from.
func Assemble(input io.Reader, symtable *SymTable) (result []uint16, errs []error) {
	asm := assembly{
		result:   make([]uint16, machine.ROM_SIZE),
		labels:   make(map[string]uint16),
		symtable: symtable,
	}

	if symtable != nil {
		if symtable.Symbols == nil {
			symtable.Symbols = make(map[uint16]int64)
		}

		if symtable.Labels == nil {
			symtable.Labels = make(map[uint16]string)
		}
	}

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	for scanner.Scan() {
		line := scanner.Text()

		cursor.Size = int64(len(line))
		cursor.Byte = cursor.LineByte

		tokens, lineErrs := tokenize(line, cursor)

		if !asm.line(tokens, lineErrs, cursor) {
			break
		}

		cursor.Line++
		cursor.LineByte += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		asm.fail(err)
	}

	for _, ref := range asm.refs {
		// Dropped when ROM overflowed
		if int(ref.Addr) >= asm.size {
			continue
		}

		addr, exists := asm.labels[ref.Label]

		if !exists {
			asm.fail(&UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		if int(addr) >= machine.ROM_SIZE {
			asm.fail(&OversizedLiteralError{
				ref.Position, ADDR_MIN, ADDR_MAX, int32(addr),
			})

			continue
		}

		asm.result[ref.Addr] |= addr
	}

	if symtable != nil {
		for label, addr := range asm.labels {
			symtable.Labels[addr] = label
		}
	}

	return asm.result[:asm.size], asm.errs
}

// line assembles one tokenized line and reports whether to keep reading.
func (asm *assembly) line(tokens []Token, lineErrs []error, cursor Cursor) bool {
	// Skip assembly of lines that failed to tokenize
	if len(lineErrs) > 0 {
		asm.errs = append(asm.errs, lineErrs...)
		return true
	}

	if len(tokens) == 0 {
		return true
	}

	first := &tokens[0]

	if first.Type == TOKEN_LABEL || first.Type == TOKEN_IDENT {
		if _, isOp := isa.ParseOpcode(first.Value); first.Type == TOKEN_LABEL || !isOp {
			if _, exists := asm.labels[first.Value]; exists {
				asm.fail(&RedeclaredLabelError{first.Position, first.Value})
			} else {
				asm.labels[first.Value] = uint16(asm.program)
			}

			tokens = tokens[1:]
		}
	}

	// No need to assemble label-only statements
	if len(tokens) == 0 {
		return true
	}

	keyword := &tokens[0]
	operands := tokens[1:]

	switch keyword.Type {
	case TOKEN_DIRECTIVE:
		directive := parseDirective(keyword.Value)

		if directive == DIRECTIVE_INVALID {
			asm.fail(&UnknownIdentifierError{keyword.Position, keyword.Value})
			return true
		}

		return asm.directive(directive, keyword, operands, cursor)

	case TOKEN_IDENT:
		op, ok := isa.ParseOpcode(keyword.Value)

		if !ok {
			asm.fail(&UnknownIdentifierError{keyword.Position, keyword.Value})
			return true
		}

		return asm.instruction(op, keyword, operands, cursor)
	}

	asm.fail(&InvalidOperandError{
		keyword.Position,
		[]TokenType{TOKEN_IDENT, TOKEN_DIRECTIVE},
		keyword.Type,
	})

	return true
}
