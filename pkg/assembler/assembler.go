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

	"github.com/lassandro/gopdp12/pkg/encoding"
	"github.com/lassandro/gopdp12/pkg/machine"
)

type statement struct {
	Addr     uint16
	Tokens   []Token
	Data     bool
	LineByte int64
}

type assembly struct {
	labels     map[string]uint16
	statements []statement
	symtable   *SymTable
	pointer    int
	errs       []error
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}

	return strings.IndexByte(".+-*#_", c) != -1
}

func isDigits(s string) bool {
	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func tokenize(line string, lineNo int, lineByte int64) ([]Token, error) {
	var tokens []Token

	for i := 0; i < len(line); {
		c := line[i]

		if c == '/' {
			break
		}

		if isSpace(c) {
			i++
			continue
		}

		start := i

		for i < len(line) && !isSpace(line[i]) && line[i] != ',' && line[i] != '/' {
			if !isTokenChar(line[i]) {
				return nil, &UnexpectedCharacterError{
					Position: Cursor{
						Line:     lineNo,
						Column:   i + 1,
						Byte:     lineByte + int64(i),
						Size:     1,
						LineByte: lineByte,
					},
					Received: rune(line[i]),
				}
			}
			i++
		}

		token := Token{
			Value: line[start:i],
			Position: Cursor{
				Line:     lineNo,
				Column:   start + 1,
				Byte:     lineByte + int64(start),
				Size:     int64(i - start),
				LineByte: lineByte,
			},
		}

		if i < len(line) && line[i] == ',' {
			if token.Value == "" {
				return nil, &UnexpectedCharacterError{
					Position: token.Position,
					Received: ',',
				}
			}

			token.Label = true
			i++
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Assemble translates 8-mode source into a full memory image. Numbers are
// octal unless prefixed with # (decimal) or x (hex). Assembly continues past
// errors so that every problem is reported.
func Assemble(input io.Reader, symtable *SymTable) (result [machine.MEMORY_SIZE]uint16, errs []error) {
	asm := assembly{
		labels:   make(map[string]uint16),
		symtable: symtable,
	}

	reader := bufio.NewReader(input)
	lineNo := 0
	lineByte := int64(0)

	for {
		line, err := reader.ReadString('\n')

		if len(line) > 0 {
			lineNo++
			asm.parseLine(line, lineNo, lineByte)
			lineByte += int64(len(line))
		}

		if err == io.EOF {
			break
		} else if err != nil {
			asm.errs = append(asm.errs, err)
			return result, asm.errs
		}
	}

	for _, stmt := range asm.statements {
		word, err := asm.encode(&stmt)

		if err != nil {
			asm.errs = append(asm.errs, err)
			continue
		}

		result[stmt.Addr] = word
	}

	return result, asm.errs
}

func AssembleString(source string, symtable *SymTable) ([machine.MEMORY_SIZE]uint16, []error) {
	return Assemble(strings.NewReader(source), symtable)
}

func (asm *assembly) parseLine(line string, lineNo int, lineByte int64) {
	tokens, err := tokenize(line, lineNo, lineByte)

	if err != nil {
		asm.errs = append(asm.errs, err)
		return
	}

	for len(tokens) > 0 && tokens[0].Label {
		asm.defineLabel(&tokens[0])
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return
	}

	head := tokens[0]

	switch ident := strings.ToUpper(head.Value); {
	case strings.HasPrefix(ident, "*"):
		origin := head
		origin.Value = origin.Value[1:]

		if origin.Value == "" && len(tokens) == 2 {
			origin = tokens[1]
		} else if origin.Value == "" || len(tokens) != 1 {
			asm.errs = append(asm.errs, &InvalidNumArgumentsError{
				head.Position, 1, len(tokens) - 1,
			})
			return
		}

		asm.setOrigin(&origin)

	case ident == DIRECTIVE_ADDRESS:
		if len(tokens) != 2 {
			asm.errs = append(asm.errs, &InvalidNumArgumentsError{
				head.Position, 1, len(tokens) - 1,
			})
			return
		}

		asm.setOrigin(&tokens[1])

	case ident == DIRECTIVE_DATA:
		if len(tokens) != 2 {
			asm.errs = append(asm.errs, &InvalidNumArgumentsError{
				head.Position, 1, len(tokens) - 1,
			})
			return
		}

		asm.place(statement{Tokens: tokens[1:], Data: true, LineByte: lineByte}, &head)

	default:
		// Legacy listing format: address followed by the contents
		if isDigits(head.Value) && len(tokens) > 1 {
			if !asm.setOrigin(&head) {
				return
			}
			tokens = tokens[1:]
		}

		asm.place(statement{Tokens: tokens, LineByte: lineByte}, &tokens[0])
	}
}

func (asm *assembly) defineLabel(token *Token) {
	addr := uint16(asm.pointer) & machine.MASK_12BIT

	if _, exists := asm.labels[token.Value]; exists {
		asm.errs = append(asm.errs, &RedeclaredLabelError{
			token.Position, token.Value,
		})
		return
	}

	asm.labels[token.Value] = addr

	if asm.symtable != nil {
		asm.symtable.Labels[addr] = token.Value
	}
}

func (asm *assembly) setOrigin(token *Token) bool {
	value, err := encoding.DecodeOctal(token.Value)

	if err != nil || value > machine.MASK_12BIT {
		asm.errs = append(asm.errs, &InvalidLiteralError{
			token.Position, token.Value,
		})
		return false
	}

	asm.pointer = int(value)
	return true
}

func (asm *assembly) place(stmt statement, token *Token) {
	if asm.pointer > int(machine.MASK_12BIT) {
		asm.errs = append(asm.errs, &OversizedBinaryError{token.Position})
		return
	}

	stmt.Addr = uint16(asm.pointer)
	asm.statements = append(asm.statements, stmt)
	asm.pointer++

	if asm.symtable != nil {
		asm.symtable.Symbols[stmt.Addr] = stmt.LineByte
	}
}

// evaluate resolves a numeric literal, a label or a location relative
// expression (., .+N, .-N) to a 12-bit value.
func (asm *assembly) evaluate(token *Token, here uint16) (uint16, error) {
	value := token.Value

	if strings.HasPrefix(value, ".") && (len(value) == 1 || value[1] == '+' || value[1] == '-') {
		if len(value) == 1 {
			return here, nil
		}

		offset, err := encoding.DecodeOctal(value[2:])

		if err != nil {
			return 0, &InvalidLiteralError{token.Position, value}
		}

		if value[1] == '-' {
			return (here - offset) & machine.MASK_12BIT, nil
		}

		return (here + offset) & machine.MASK_12BIT, nil
	}

	if addr, ok := asm.labels[value]; ok {
		return addr, nil
	}

	result, err := encoding.DecodeWord(value)

	if err != nil {
		if c := value[0]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return 0, &UnknownIdentifierError{token.Position, value}
		}

		return 0, &InvalidLiteralError{token.Position, value}
	}

	return result, nil
}

func isOperate(ident string) bool {
	if _, ok := operateCommon[ident]; ok {
		return true
	}

	if _, ok := operateGroup1[ident]; ok {
		return true
	}

	_, ok := operateGroup2[ident]
	return ok
}

func (asm *assembly) encode(stmt *statement) (uint16, error) {
	head := &stmt.Tokens[0]

	if stmt.Data {
		return asm.evaluate(head, stmt.Addr)
	}

	ident := strings.ToUpper(head.Value)

	if word, ok := memoryReference[ident]; ok {
		args := stmt.Tokens[1:]

		if len(args) > 0 && strings.EqualFold(args[0].Value, INDIRECT) {
			word |= machine.BIT_INDIRECT
			args = args[1:]
		}

		if len(args) != 1 {
			return 0, &InvalidNumArgumentsError{head.Position, 1, len(args)}
		}

		operand, err := asm.evaluate(&args[0], stmt.Addr)

		if err != nil {
			return 0, err
		}

		if operand <= machine.MASK_OFFSET {
			word |= operand
		} else if operand&machine.MASK_PAGE == stmt.Addr&machine.MASK_PAGE {
			word |= machine.BIT_CURRENTPAGE | (operand & machine.MASK_OFFSET)
		} else {
			return 0, &PageError{args[0].Position, stmt.Addr, operand}
		}

		return word, nil
	}

	if word, ok := ioTransfer[ident]; ok {
		if len(stmt.Tokens) != 1 {
			return 0, &InvalidNumArgumentsError{head.Position, 0, len(stmt.Tokens) - 1}
		}

		return word, nil
	}

	if isOperate(ident) {
		return encodeOperate(stmt.Tokens)
	}

	if len(stmt.Tokens) == 1 {
		return asm.evaluate(head, stmt.Addr)
	}

	return 0, &UnknownIdentifierError{head.Position, head.Value}
}

func encodeOperate(tokens []Token) (uint16, error) {
	word := machine.OP_OPR << 9
	group := 0

	for i := range tokens {
		ident := strings.ToUpper(tokens[i].Value)

		if bits, ok := operateCommon[ident]; ok {
			word |= bits
		} else if bits, ok := operateGroup1[ident]; ok {
			if group == 2 {
				return 0, &GroupConflictError{tokens[i].Position, tokens[i].Value}
			}
			group = 1
			word |= bits
		} else if bits, ok := operateGroup2[ident]; ok {
			if group == 1 {
				return 0, &GroupConflictError{tokens[i].Position, tokens[i].Value}
			}
			group = 2
			word |= bits
		} else {
			return 0, &UnknownIdentifierError{tokens[i].Position, tokens[i].Value}
		}
	}

	if group == 2 {
		word |= machine.G2_GROUP
	}

	return word, nil
}
