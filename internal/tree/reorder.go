/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tree

import "svgadjuster/internal/document"

// ReorderToFront moves the node to the end of its collection so it paints last.
func ReorderToFront(root *document.Root, id string) {
	move(root, id, true)
}

// ReorderToBack moves the node to the start of its collection.
func ReorderToBack(root *document.Root, id string) {
	move(root, id, false)
}

// GroupReorderToFront reorders the node's enclosing group (or the node
// itself when it is a container or ungrouped) within that group's own
// collection.
func GroupReorderToFront(root *document.Root, id string) {
	if target := groupTarget(root, id); target != nil {
		move(root, target.ID, true)
	}
}

// GroupReorderToBack is GroupReorderToFront towards the start.
func GroupReorderToBack(root *document.Root, id string) {
	if target := groupTarget(root, id); target != nil {
		move(root, target.ID, false)
	}
}

// groupTarget resolves which node a group-mode operation acts on.
func groupTarget(root *document.Root, id string) *document.Node {
	n := FindByID(root, id)
	if n == nil {
		return nil
	}
	if n.Kind.IsContainer() {
		return n
	}
	if g := FindEnclosingGroup(root, id); g != nil {
		return g
	}
	return n
}

// move removes the node and reinserts it into the same slice; the node is
// never in zero or two collections when it returns.
func move(root *document.Root, id string, toFront bool) {
	coll, i := FindParentCollection(root, id)
	if coll == nil {
		return
	}
	s := *coll
	n := s[i]
	if toFront {
		copy(s[i:], s[i+1:])
		s[len(s)-1] = n
	} else {
		copy(s[1:i+1], s[:i])
		s[0] = n
	}
}
