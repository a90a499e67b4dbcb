/*
Package service implements the todo, task list, reward and account use cases on top of
the datastore interfaces.

Points tie the services together: completing a todo credits its points to the owner's
account, and redeeming a reward debits the reward's cost. Both moves are reversible, and a
debit never takes a balance below zero.
*/
package service
