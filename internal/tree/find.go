/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tree locates and mutates nodes of a document tree in place.
// Every operation takes the root and a node id; an unknown id is a no-op.
// Nothing here renders: callers regenerate markup after a mutation.
package tree

import "svgadjuster/internal/document"

// FindByID returns the first node with id in paint order, parents before
// children, or nil.
func FindByID(root *document.Root, id string) *document.Node {
	if root == nil || id == "" {
		return nil
	}
	var found *document.Node
	document.Walk(root.Nodes, func(n, _ *document.Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindParentCollection returns the slice that holds the node with id and
// the node's index in it. The pointer allows in-place splicing. It returns
// (nil, -1) when the id is unknown.
func FindParentCollection(root *document.Root, id string) (*[]*document.Node, int) {
	if root == nil || id == "" {
		return nil, -1
	}
	return findIn(&root.Nodes, id)
}

func findIn(coll *[]*document.Node, id string) (*[]*document.Node, int) {
	for i, n := range *coll {
		if n == nil {
			continue
		}
		if n.ID == id {
			return coll, i
		}
		if len(n.Children) > 0 {
			if c, j := findIn(&n.Children, id); c != nil {
				return c, j
			}
		}
	}
	return nil, -1
}

// FindEnclosingGroup returns the nearest container holding the node with
// id, or nil when the node is top-level or unknown.
func FindEnclosingGroup(root *document.Root, id string) *document.Node {
	if root == nil || id == "" {
		return nil
	}
	var group *document.Node
	document.Walk(root.Nodes, func(n, parent *document.Node) bool {
		if n.ID == id {
			group = parent
			return false
		}
		return true
	})
	return group
}
