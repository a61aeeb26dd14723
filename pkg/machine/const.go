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

package machine

const (
	REGISTER_COUNT  = 8
	ROM_SIZE        = 256
	RAM_SIZE        = 256
	TRACE_REGISTERS = 4
)

// OUTPUT_PORT is the RAM cell the bundled programs write their result to.
// Nothing in the machine treats it specially.
const OUTPUT_PORT uint16 = 64

const (
	REGION_REGISTERS Region = iota
	REGION_ROM
	REGION_RAM
)
