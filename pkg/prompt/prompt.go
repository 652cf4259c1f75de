/* Copyright 2025 Biblios Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package prompt provides interactive yes/no confirmation on the command line
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// FormatQuestion formats a yes/no question with a hint about the default answer
func FormatQuestion(question string, optimistic bool) string {
	if optimistic {
		return fmt.Sprintf("%s [Y/n]:", question)
	}

	return fmt.Sprintf("%s [y/N]:", question)
}

// ReadYesNo reads a yes/no answer from the given reader. An empty answer
// resolves to the default indicated by optimistic.
func ReadYesNo(r io.Reader, optimistic bool) (bool, error) {
	reader := bufio.NewReader(r)

	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "reading input")
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	switch answer {
	case "":
		return optimistic, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, errors.Errorf("unrecognized answer '%s'", answer)
	}
}
