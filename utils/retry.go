// Copyright (C) 2025 the ai-vulns authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package utils

// Retry calls fn up to maxAttempts times. A new attempt is only started when
// the previous one failed with an error the classifier considers retryable.
// Terminal errors and the last attempt's error are returned as-is, so callers
// can keep their own error taxonomy.
func Retry[T any](maxAttempts int, fn func() (T, error), retryable func(error) bool) (T, error) {
	var zero T
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var res T
		res, err = fn()
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return zero, err
		}
	}
	return zero, err
}
